// Package dijson exposes a container through a string-keyed JSON boundary.
//
// A Registry stores named json.RawMessage documents in a regular container,
// so dynamic callers (config loaders, manifest tooling, anything that does
// not know service types at compile time) can share one container tree with
// typed code. Scope visibility, locking and duplicate handling are the
// container's own; the registry adds JSON validation, path lookups and a
// small numeric error-code model for callers that switch on failure kinds
// rather than unwrap error chains.
//
//	reg := dijson.New()
//	_ = reg.Register("Config", []byte(`{"debug": true, "port": 8080}`))
//
//	port, _ := reg.Lookup("Config", "port") // port.Int() == 8080
//
//	var cfg struct {
//		Debug bool `json:"debug"`
//		Port  int  `json:"port"`
//	}
//	_ = reg.ResolveInto("Config", &cfg)
package dijson
