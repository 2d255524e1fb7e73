package socketio

import (
	"log"
	"os"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

var pkgLogger atomic.Pointer[logr.Logger]

func init() {
	l := stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("socketio")
	pkgLogger.Store(&l)
}

// SetLogger replaces the logger used by this package. Debug traffic (dropped
// packets, missing handlers) is written at V(1).
func SetLogger(l logr.Logger) {
	pkgLogger.Store(&l)
}

func logger() logr.Logger {
	return *pkgLogger.Load()
}
