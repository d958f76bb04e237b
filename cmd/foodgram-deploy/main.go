// foodgram-deploy brings the Foodgram Compose stack up or down against a
// Docker engine and reports per-service status.
package main

import "os"

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
