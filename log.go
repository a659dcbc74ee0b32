package main

import (
	"github.com/embernet/emberd/infrastructure/logger"
	"github.com/embernet/emberd/util/panics"
)

var log = logger.RegisterSubSystem("EMBD")
var spawn = panics.GoroutineWrapperFunc(log)
