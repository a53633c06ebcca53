// Package smoke runs the end-to-end smoke scenario against a todo service.
//
// ## Scenario
//
// A run drives the service through fixed phases, in order:
//
//   - create: item1 and item3 with the same description, item2 with another
//   - update: item1 and item2 are marked completed
//   - verify-membership: item1 is in /todo-completed, item3 in /todo-incomplete
//   - delete: item1 and item3 are removed
//   - verify-removal: neither is found in either list any more
//   - cleanup: item2 is removed, only when requested
//
// Items are found in fetched lists by description (the default) or by id.
// A create that yields no usable item stops the run and the remaining phases
// are reported as SKIPPED.
//
// ## Results
//
// The run is ERROR when it stopped early or any phase hit a transport or
// decode error, FAILED when a verification phase failed, and PASSED
// otherwise. Cleanup never changes the result.
//
// ## Usage
//
// The scenario is invoked through the `todosmoke test` command:
//
//	```bash
//	todosmoke test --base-url http://todolist.apps.example.com
//	todosmoke test --route todo/todolist --match-by id --cleanup
//	todosmoke test --base-url http://localhost:8080 --output json
//	```
//
// Output is produced by a Reporter: console (default), quiet or JSON.
package smoke
