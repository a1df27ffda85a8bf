// Package pkg provides the libraries behind nginx-analyze-ci.
//
// # Overview
//
// nginx-analyze-ci collects the nginx configuration files of a directory,
// groups them into independent configuration trees by following include
// directives, and submits the trees to a remote analysis service in
// size-bounded batches. The pkg directory is organized into three areas:
//
//  1. Configuration model: [nginxconf], [includes], [depgraph], [sslref]
//  2. Submission: [batch], [analyzer], [report]
//  3. Infrastructure: [discovery], [loader], [cache], [config], [errors],
//     [observability], [buildinfo]
//
// [pipeline] ties them together and is used by the CLI.
//
// # Architecture
//
// The data flow of one run:
//
//	Directory
//	    ↓
//	[discovery] (glob patterns, excludes, size limits)
//	    ↓
//	[loader] (read + parse, deduplicated by content hash)
//	    ↓
//	[depgraph] (include edges via [includes], connected components)
//	    ↓
//	[batch] (payload with [sslref] references, greedy packing)
//	    ↓
//	[analyzer] (gzip POST, retries, optional response cache)
//	    ↓
//	[report] (merge batch results, exit code)
//
// # Quick Start
//
//	import "github.com/nginly/nginx-analyze-ci/pkg/pipeline"
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Dir:       "/etc/nginx",
//	    ServerURL: "https://analyzer.example.com/api/ci/analyze",
//	    Key:       os.Getenv("NGINX_ANALYZE_TOKEN"),
//	})
//	if err != nil {
//	    return err
//	}
//	code, summary := report.ExitCode(res.Report, false)
//
// Parse a single file:
//
//	doc, err := nginxconf.ParseString(src)
//	for _, target := range includes.Targets(doc) {
//	    fmt.Println(target)
//	}
//
// # Testing
//
//	go test ./pkg/...
//	go test -run Example ./pkg/...
//
// [nginxconf]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/nginxconf
// [includes]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/includes
// [depgraph]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/depgraph
// [sslref]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/sslref
// [batch]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/batch
// [analyzer]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/analyzer
// [report]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/report
// [discovery]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/discovery
// [loader]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/loader
// [cache]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/cache
// [config]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/config
// [errors]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/errors
// [observability]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/buildinfo
// [pipeline]: https://pkg.go.dev/github.com/nginly/nginx-analyze-ci/pkg/pipeline
package pkg
