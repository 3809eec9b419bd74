package coordinator

// HostSpec is one worker machine available to the benchmark run.
type HostSpec struct {
	Name  string
	Cores int
}

// WorkerAssignment is one worker's slice of the global client id space.
// An empty ClientIDs means an idle slot: it still counts toward the
// rendezvous total so join-point arithmetic stays stable.
type WorkerAssignment struct {
	Host        string
	WorkerIndex int
	ClientIDs   []int
}

// CalculateWorkerAssignments splits totalClients client ids across
// hosts proportional to core count, then packs each host's share
// round-robin across its per-core workers, per spec.md §4.7. Hosts are
// visited in input order and client ids are assigned contiguously, so
// the first few workers on an uneven host get ⌈share/workers⌉ ids and
// the rest get ⌊share/workers⌋.
func CalculateWorkerAssignments(hosts []HostSpec, totalClients int) []WorkerAssignment {
	totalCores := 0
	for _, h := range hosts {
		totalCores += h.Cores
	}
	if totalCores == 0 {
		return nil
	}

	hostShares := proportionalShares(hosts, totalClients, totalCores)

	assignments := make([]WorkerAssignment, 0, totalCores)
	nextID := 0
	for i, h := range hosts {
		share := hostShares[i]
		workers := h.Cores
		base := share / workers
		extra := share % workers
		for w := 0; w < workers; w++ {
			count := base
			if w < extra {
				count++
			}
			ids := make([]int, count)
			for k := 0; k < count; k++ {
				ids[k] = nextID
				nextID++
			}
			assignments = append(assignments, WorkerAssignment{Host: h.Name, WorkerIndex: w, ClientIDs: ids})
		}
	}
	return assignments
}

// proportionalShares distributes totalClients across hosts proportional
// to core count using the largest-remainder method, so shares always
// sum to exactly totalClients.
func proportionalShares(hosts []HostSpec, totalClients, totalCores int) []int {
	shares := make([]int, len(hosts))
	remainders := make([]float64, len(hosts))
	assigned := 0
	for i, h := range hosts {
		exact := float64(totalClients) * float64(h.Cores) / float64(totalCores)
		shares[i] = int(exact)
		remainders[i] = exact - float64(shares[i])
		assigned += shares[i]
	}
	for assigned < totalClients {
		best := -1
		for i := range hosts {
			if best == -1 || remainders[i] > remainders[best] {
				best = i
			}
		}
		shares[best]++
		remainders[best] = -1
		assigned++
	}
	return shares
}
