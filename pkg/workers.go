package beamana

import (
	"fmt"
	"sync"
)

// RunJob is one run handed to the run workers.
type RunJob struct {
	Index    int
	Settings RunSettings
	Config   *RunConfig
}

type RunOutcome struct {
	Index     int
	RunNumber int
	Result    *RunResult
	Err       error
}

// RunProcessor loads and analyses the run of a job.
type RunProcessor func(job RunJob) (*RunResult, error)

func runWorker(id int, jobs <-chan RunJob, results chan<- RunOutcome, process RunProcessor) {
	for job := range jobs {
		results <- processJob(id, job, process)
	}
}

func processJob(id int, job RunJob, process RunProcessor) (outcome RunOutcome) {
	outcome = RunOutcome{Index: job.Index, RunNumber: job.Settings.RunNumber}
	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("worker %d recovered from panic on run %d: %v", id, job.Settings.RunNumber, r)
			logger.Error(outcome.Err.Error())
		}
	}()

	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Worker %d processing run %d", id, job.Settings.RunNumber), "workers")
	}
	outcome.Result, outcome.Err = process(job)
	return outcome
}

// RunWorkers processes the jobs with numWorkers goroutines and returns the
// outcomes in job order.
func RunWorkers(numWorkers int, jobs []RunJob, process RunProcessor) []RunOutcome {
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobsChan := make(chan RunJob, len(jobs))
	results := make(chan RunOutcome, len(jobs))

	var wg sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(id, jobsChan, results, process)
		}(w)
	}

	for i, job := range jobs {
		job.Index = i
		jobsChan <- job
	}
	close(jobsChan)
	wg.Wait()
	close(results)

	outcomes := make([]RunOutcome, len(jobs))
	for outcome := range results {
		outcomes[outcome.Index] = outcome
	}
	return outcomes
}
