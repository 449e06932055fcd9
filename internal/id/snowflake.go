// Package id generates globally-unique, time-ordered int64 identifiers for
// LessonContent rows.
package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the snowflake node. Must be called once at worker start
// before any call to New.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new globally unique int64 ID.
func New() int64 {
	return node.Generate().Int64()
}
