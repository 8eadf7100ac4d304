package script

import (
	"context"
	"fmt"
	"sync"
)

// customRegistry maps script name to handler. Populated by
// RegisterCustomScript, typically from init() in the files that implement
// game-specific behavior.
var (
	customMu       sync.RWMutex
	customRegistry = map[string]Handler{}
)

// RegisterCustomScript registers a custom-script handler by name. A
// "custom_script" task whose "script_name" parameter matches will be routed
// to it with the fully-formed task context; the core does not validate its
// parameters. Registering an existing name replaces the previous handler.
func RegisterCustomScript(name string, handler Handler) {
	if name == "" || handler == nil {
		return
	}
	customMu.Lock()
	defer customMu.Unlock()
	customRegistry[name] = handler
}

// UnregisterCustomScript removes a custom-script handler.
func UnregisterCustomScript(name string) {
	customMu.Lock()
	defer customMu.Unlock()
	delete(customRegistry, name)
}

func lookupCustomScript(name string) (Handler, bool) {
	customMu.RLock()
	defer customMu.RUnlock()
	handler, ok := customRegistry[name]
	return handler, ok
}

// runCustomScript routes a custom_script context to the registered
// extension handler. Unknown script names skip, same as unknown task
// kinds.
func runCustomScript(ctx context.Context, env *Env, tc *TaskContext) error {
	name, ok := tc.GetString(ParamScriptName)
	if !ok || name == "" {
		return missingParam(ParamScriptName)
	}
	handler, found := lookupCustomScript(name)
	if !found {
		return fmt.Errorf("unknown custom script %q", name)
	}
	return handler(ctx, env, tc)
}
