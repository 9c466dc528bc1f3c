// Command assess scores student records offline using the same encoder,
// scorer and strategy table as the server.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
