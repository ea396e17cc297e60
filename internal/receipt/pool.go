package receipt

import "expense-ledger/internal/scanning"

// scanPool runs provider calls on a fixed set of workers so a slow or hung
// backend occupies a bounded number of goroutines instead of starving the
// request path. Callers block on their job's result channel.
type scanPool struct {
	jobs chan scanJob
}

type scanJob struct {
	scanner scanning.Scanner
	path    string
	result  chan scanResult
}

type scanResult struct {
	text string
	err  error
}

func newScanPool(workers int) *scanPool {
	if workers <= 0 {
		workers = defaultScanWorkers
	}
	p := &scanPool{jobs: make(chan scanJob)}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *scanPool) worker() {
	for job := range p.jobs {
		text, err := job.scanner.Scan(job.path)
		job.result <- scanResult{text: text, err: err}
	}
}

// submit hands a scan to the pool and waits for its result.
func (p *scanPool) submit(scanner scanning.Scanner, path string) (string, error) {
	result := make(chan scanResult, 1)
	p.jobs <- scanJob{scanner: scanner, path: path, result: result}
	r := <-result
	return r.text, r.err
}

func (p *scanPool) close() {
	close(p.jobs)
}
