package statestore

import (
	"github.com/embernet/emberd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("STAT")
