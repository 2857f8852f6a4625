// Command contentctl inspects and edits the anniversary content document
// from a terminal, using the same backends as the server.
package main

import (
	"os"

	"github.com/lovenotes/anniversary/pkg/logger"
)

func main() {
	defer logger.Sync()
	if err := newRootCmd(nil).Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
