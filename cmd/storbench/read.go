package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stornado/stornado/api"
	"github.com/stornado/stornado/backend/file"
	"github.com/stornado/stornado/backend/objstore"
	"github.com/stornado/stornado/control"
	"github.com/stornado/stornado/engine"
	"github.com/stornado/stornado/pool"
)

var readCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Random-read benchmark",
	Long: `Runs a random-read benchmark against one file (file backend) or one
bucket/object path (s3 backend). Each job owns a reactor, keeps its
queue full and drains completions in bulk.`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
}

type jobResult struct {
	reads  int64
	bytes  int64
	errors int64
}

func runRead(cmd *cobra.Command, args []string) error {
	path := args[0]
	if blockSize <= 0 || ioDepth <= 0 || parallel <= 0 || runSeconds <= 0 {
		return fmt.Errorf("block, iodepth, jobs and runtime must all be positive")
	}

	size, err := configureBackend(path)
	if err != nil {
		return err
	}
	if size < int64(blockSize) {
		return fmt.Errorf("target is %d bytes, smaller than one %d-byte block", size, blockSize)
	}

	runID := uuid.NewString()
	fmt.Printf("storbench run %s: %d job(s), iodepth %d, block %d, %ds against %s\n",
		runID, parallel, ioDepth, blockSize, runSeconds, path)

	deadline := time.Now().Add(time.Duration(runSeconds) * time.Second)
	results := make([]jobResult, parallel)

	var g errgroup.Group
	for i := 0; i < parallel; i++ {
		job := i
		g.Go(func() error {
			res, err := runJob(job, path, size, deadline)
			results[job] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	report(results)
	if verbose {
		fmt.Println("reactor counters:")
		for k, v := range control.Default().GetSnapshot() {
			fmt.Printf("  %s: %+v\n", k, v)
		}
	}
	return nil
}

// configureBackend installs the engine backend factory for the selected
// backend and returns the target's size in bytes.
func configureBackend(path string) (int64, error) {
	switch backendKind {
	case "file":
		st, err := os.Stat(path)
		if err != nil {
			return 0, fmt.Errorf("stat %s: %w", path, err)
		}
		engine.SetBackendFactory(func() (api.Backend, error) {
			return file.New(file.Config{Direct: directIO, QueueDepth: parallel * ioDepth}), nil
		})
		return st.Size(), nil
	case "s3":
		if objectSize <= 0 {
			return 0, fmt.Errorf("--size is required with the s3 backend")
		}
		cfg := objstore.Config{
			Endpoint:  s3Endpoint,
			AccessKey: os.Getenv("STORBENCH_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("STORBENCH_S3_SECRET_KEY"),
			Region:    s3Region,
			UseSSL:    s3SSL,
		}
		engine.SetBackendFactory(func() (api.Backend, error) {
			return objstore.New(cfg)
		})
		return objectSize, nil
	default:
		return 0, fmt.Errorf("unknown backend %q", backendKind)
	}
}

// runJob drives one reactor through the host cycle: fill the queue,
// await, drain, until the clock runs out and the queue is empty.
func runJob(id int, path string, size int64, deadline time.Time) (jobResult, error) {
	var res jobResult

	rtok := engine.Init(uint(ioDepth))
	if rtok == 0 {
		return res, fmt.Errorf("job %d: engine init failed", id)
	}
	ftok := engine.Open(rtok, path)
	if ftok == 0 {
		engine.Cleanup(rtok)
		return res, fmt.Errorf("job %d: open %s failed", id, path)
	}

	align := 0
	if directIO {
		align = blockSize
	}
	bufs := pool.NewBytePool(blockSize, align)
	slots := make([][]byte, ioDepth)
	free := make([]int, 0, ioDepth)
	for i := range slots {
		slots[i] = bufs.Get()
		free = append(free, i)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	blocks := size / int64(blockSize)
	inflight := 0

	for time.Now().Before(deadline) || inflight > 0 {
		for len(free) > 0 && time.Now().Before(deadline) {
			slot := free[len(free)-1]
			off := rng.Int63n(blocks) * int64(blockSize)
			if rc := engine.Queue(rtok, ftok, uintptr(slot), int(api.DirRead), off, slots[slot]); rc != 0 {
				res.errors++
				break
			}
			free = free[:len(free)-1]
			inflight++
		}
		if inflight == 0 {
			break
		}
		n := engine.AwaitCompletions(rtok, 1, inflight, time.Second)
		if n < 0 {
			return res, fmt.Errorf("job %d: await completions failed", id)
		}
		for i := 0; i < n; i++ {
			corr, code := engine.GetEvent(rtok)
			if code != 0 {
				res.errors++
			} else {
				res.reads++
				res.bytes += int64(blockSize)
			}
			free = append(free, int(corr))
			inflight--
		}
	}

	engine.CloseFile(ftok)
	engine.Cleanup(rtok)
	return res, nil
}

func report(results []jobResult) {
	var total jobResult
	for i, r := range results {
		fmt.Printf("  job %d: %d reads, %.2f MiB, %d errors\n",
			i, r.reads, float64(r.bytes)/(1<<20), r.errors)
		total.reads += r.reads
		total.bytes += r.bytes
		total.errors += r.errors
	}
	secs := float64(runSeconds)
	fmt.Printf("total: %.0f iops, %.2f MiB/s, %d errors\n",
		float64(total.reads)/secs, float64(total.bytes)/(1<<20)/secs, total.errors)
}
