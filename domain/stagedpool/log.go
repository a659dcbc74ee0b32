package stagedpool

import (
	"github.com/embernet/emberd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("TXMP")
