// storbench drives the storage engine the way a poll-driven benchmark
// host would: per-job reactors, a full submission queue, bulk completion
// harvesting.
package main

func main() {
	Execute()
}
