// Command dicheck — manifest-driven wiring verification
//
// dicheck reads a JSON manifest describing named service documents, scope
// definitions and resolution checks, builds the corresponding container tree
// through the dijson registry, runs every check, and writes a JSON report.
// It exists so deployment pipelines can verify a service wiring plan without
// starting the application that owns it.
//
// Manifest format
//
// Minimal example:
//
//	{
//	  "services": {
//	    "Config":   {"port": 8080, "debug": false},
//	    "Database": {"dsn": "postgres://localhost/app"}
//	  },
//	  "scopes": [
//	    {
//	      "name": "request",
//	      "services": {
//	        "RequestID": {"id": "req-1"},
//	        "Config":    {"port": 9999, "debug": true}
//	      },
//	      "checks": [
//	        { "service": "Config", "path": "port", "equals": "9999" },
//	        { "service": "Database" },
//	        { "service": "Session", "absent": true }
//	      ]
//	    }
//	  ],
//	  "checks": [
//	    { "service": "Config", "path": "port", "equals": "8080" },
//	    { "service": "RequestID", "absent": true }
//	  ]
//	}
//
// Top-level services register on the root registry; each scope entry opens a
// child registry with its own services, shadowing the root where names
// repeat. Top-level checks run against the root, scope checks against their
// scope. A check resolves its service, optionally evaluates a gjson path
// inside the document, and optionally compares the result; "absent": true
// inverts it, asserting the name must NOT resolve there.
//
// Usage
//
//	dicheck -manifest wiring.json [-report report.json] [-env-file .env]
//
// The report destination falls back to DICHECK_REPORT, then to
// dicheck-report.json. Logging is configured from LOG_LEVEL / LOG_FORMAT /
// LOG_CALLER; an -env-file (or a .env in the working directory) is loaded
// first. The report is written atomically, so a consumer polling the path
// never observes a partial file.
//
// Exit codes
//
//	0  manifest loaded and every check passed
//	1  manifest loaded, one or more checks failed (see the report)
//	2  usage, environment or manifest errors
package main
