// Command fixedarena drives a fixed-capacity allocator with synthetic
// workloads and reports its counters.
package main

func main() {
	execute()
}
