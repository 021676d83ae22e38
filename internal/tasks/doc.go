// Package tasks reads, validates, and updates the task file and resolves
// task IDs for the tag store.
//
// The task file (tasks.json) looks like:
//
//	{
//	  "schema_version": 1,
//	  "tasks": [
//	    {
//	      "id": "5f0c6a9e-3b8e-4c57-9a51-6f1d2f4e8a10",
//	      "title": "Buy milk",
//	      "status": "Active",
//	      "tags": ["@errands"],
//	      "start_date": "2026-01-02",
//	      "subtasks": ["1b4e28ba-2fa1-11d2-883f-0016d3cca427"],
//	      "created_at": "2026-01-01T00:00:00Z",
//	      "updated_at": "2026-01-01T00:00:00Z"
//	    }
//	  ]
//	}
//
// # Validation
//
// Files are validated against an embedded JSON Schema unless a schema path
// is given. If the given schema cannot be used, minimal structural checks
// run instead and a warning is reported.
//
// # Status Values
//
//   - "Active": open task
//   - "Done": finished
//   - "Dismissed": dropped without finishing
//
// # Workview
//
// A task is in the workview when it is Active, its start date is not in the
// future, none of its subtasks is Active, and none of its tags opts out of
// the workview with nonworkview="True". The tag being browsed is exempt
// from that last rule.
package tasks
