//go:build !unix

package stats

// getrusage has no equivalent here; CPU and fault counters stay zero.
func getrusage() (ResourceUsage, error) {
	return ResourceUsage{}, nil
}
