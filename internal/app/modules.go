package app

import (
	"github.com/vk/opdispatch/internal/builtins"
	"github.com/vk/opdispatch/internal/handlers"
)

// coreModules is the definitive list of kernel packs compiled into the
// opdispatch binary.
var coreModules = []handlers.Module{
	builtins.Module{},
}
