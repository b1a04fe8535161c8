// Package core holds the member registry business logic, independent of
// any transport. The HTTP server and memberctl both drive it through
// [Service].
//
// # Normalization
//
// Every write starts from a [RawFieldBag], a loosely typed map from field
// key to value. [Normalize] turns it into a [Record] for interactive edits;
// [ImportRecord] is the stricter variant used for spreadsheet rows. Each
// Record field is a [Field], which distinguishes a key that was never sent
// (Absent) from one explicitly cleared (Empty) and one carrying a value
// (Present). Updates apply only Present and Empty fields, so a sparse row
// never wipes data it did not mention.
//
// # Spreadsheet Import
//
// An import runs in four steps:
//
//  1. [Service.ImportFile] decodes the file through a [WorkbookDecoder] and
//     takes the first sheet.
//  2. Pre-flight checks reject empty or oversized batches as a whole. These
//     errors satisfy [IsPreflight].
//  3. [MapRow] maps each row's headers (English or Arabic, any spacing or
//     case) onto canonical keys.
//  4. The [Resolver] looks for an existing member by membershipId, cin,
//     email, phone and then fullName. Depending on the [ImportMode] the
//     row creates, updates or skips.
//
// Rows run strictly in order so a later row sees what an earlier one
// created. A failing row is reported in [ImportResult] and never aborts the
// batch. Concurrent batches are bounded by an [ImportLimiter].
//
// # Errors
//
// Technical errors are mapped to user-facing messages by [MapError]. Each
// category carries a code staff can quote:
//
//   - DB001-DB006: database errors (duplicates, connectivity, timeouts)
//   - VAL001-VAL007: validation errors
//   - FILE001-FILE006: upload and file errors
//   - IMP001-IMP003: import batch errors
//   - MEM001-MEM002: member lookups and bulk deletes
//
// # Audit
//
// Creates, updates and deletes are recorded through an [AuditSink] with the
// actor, IP address and user agent taken from the context. A failing sink is
// logged and never fails the write.
package core
