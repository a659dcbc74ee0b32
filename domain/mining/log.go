package mining

import (
	"github.com/embernet/emberd/infrastructure/logger"
	"github.com/embernet/emberd/util/panics"
)

var log = logger.RegisterSubSystem("MINR")
var spawn = panics.GoroutineWrapperFunc(log)
