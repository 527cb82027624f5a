// Package declare exposes reconciliation over HTTP.
//
// # Routes
//
//   - POST /declare?dryRun=true|false: submit a declaration (JSON or YAML). The
//     response carries the plan and, unless dry-run, what was applied.
//   - POST /declare/parse: return the class index and tenants of a declaration.
//   - GET /declare/history: list archived declarations.
//   - GET /declare/history/:id: return one archived declaration.
//
// Invalid declarations are answered with 422, failures of the device with 502.
// Applied declarations are recorded in the snapshot when the snapshot source is
// writable, so the next submission modifies what this one created.
package declare
