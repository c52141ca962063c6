// Package instance names the running process for lock ownership and logs.
package instance

import (
	"fmt"
	"os"
)

// ID returns WORKER_ID when set, otherwise host-pid.
func ID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
