package ldb

import (
	"github.com/embernet/emberd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("LVDB")
