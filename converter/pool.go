package converter

import (
	"sync"

	"github.com/rbs-sci/PASR/contracts"
)

func worker(taskChan <-chan contracts.Job, resultChan chan<- contracts.Result, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range taskChan {
		resultChan <- ProcessJob(job)
	}
}

// ProcessDirectory runs all jobs across a fixed pool of nWorkers
// goroutines and returns every result. One job's failure never cancels
// its siblings. report, when non-nil, is called once per finished job
// from a single goroutine, in completion order.
func ProcessDirectory(jobs []contracts.Job, nWorkers int, report func(contracts.Result)) []contracts.Result {
	if nWorkers < 1 {
		nWorkers = 1
	}
	if nWorkers > len(jobs) {
		nWorkers = len(jobs)
	}

	taskChan := make(chan contracts.Job)
	resultChan := make(chan contracts.Result, len(jobs))

	wg := &sync.WaitGroup{}
	for i := 0; i < nWorkers; i++ {
		wg.Add(1)
		go worker(taskChan, resultChan, wg)
	}

	results := make([]contracts.Result, 0, len(jobs))
	done := make(chan struct{})
	go func() {
		for result := range resultChan {
			if report != nil {
				report(result)
			}
			results = append(results, result)
		}
		close(done)
	}()

	for _, job := range jobs {
		taskChan <- job
	}
	close(taskChan)

	wg.Wait()
	close(resultChan)
	<-done

	return results
}
