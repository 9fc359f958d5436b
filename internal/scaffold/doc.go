// Package scaffold builds experiment folder trees.
//
// # Builder
//
// The Builder runs a build in three steps:
//
//  1. Create the root folder <parent>/<YYYY-MM-DD> - <name>
//  2. Create the selected category folders and image format folders
//  3. Write the notes file and copy the selected templates, renaming
//     those that carry the experiment identifier
//
// # Basic Usage
//
//	builder := scaffold.NewBuilder(templates.Set{Dir: "files"}, func(e scaffold.Event) {
//	    fmt.Println(e.Message)
//	})
//
//	report, err := builder.Build(ctx, req)
//	if err != nil {
//	    log.Fatal(err) // ctx was done before the build started
//	}
//	fmt.Println(report.Summary())
//
// # Errors
//
// Nothing aborts a build. Each directory and each file is attempted on its
// own and ends up in the Report as created, existed or failed. Failed items
// carry an *Error whose Kind separates rename anomalies and missing
// templates from ordinary creation failures:
//
//	for _, it := range report.Failed() {
//	    switch scaffold.KindOf(it.Err) {
//	    case scaffold.KindRenameConflict:
//	        // rerun against an already provisioned tree
//	    }
//	}
//
// # Concurrency
//
// A single build is sequential. BuildAll runs several builds through an
// errgroup with a concurrency limit; builds of the same root are
// serialized by a Locker. The progress callback may be called from
// several goroutines at once.
package scaffold
