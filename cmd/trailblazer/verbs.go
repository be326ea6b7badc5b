package main

// verbFunc runs one CLI verb against the already-loaded global config
// and logger, returning any fatal error.
type verbFunc func(args []string) error

var verbs map[string]verbFunc

// verbOrder fixes the usage-listing order; populated alongside verbs in
// each verb file's init().
var verbOrder []string

func registerVerb(name string, fn verbFunc) {
	if verbs == nil {
		verbs = make(map[string]verbFunc)
	}
	verbs[name] = fn
	verbOrder = append(verbOrder, name)
}
