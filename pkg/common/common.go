package common

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(rand.New(rand.NewSource(time.Now().UnixNano())).Int63n(1023))
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a snowflake id as int64.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns a snowflake id in string form.
func UUID() string {
	return snowflakeNode.Generate().String()
}

// FileExists tests a file path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MakeDir creates dir if it does not exist yet.
func MakeDir(path string) {
	if !FileExists(path) {
		_ = os.MkdirAll(path, 0o755)
	}
}

// Float64String formats a currency value with two decimals for logs and
// plain-text output. Invoice rendering uses its own locale-aware printer.
func Float64String(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
