package spf

import (
	"cmp"
	"container/heap"
	"errors"
	"fmt"
	"net"
	"slices"

	"github.com/encodeous/rbridge/state"
)

var ErrUnknownRoot = errors.New("root is not part of the topology")

type vkey struct {
	id     state.SystemId
	pseudo uint8
}

func (k vkey) compare(o vkey) int {
	if c := k.id.Compare(o.id); c != 0 {
		return c
	}
	return cmp.Compare(k.pseudo, o.pseudo)
}

type edge struct {
	to     vkey
	metric uint32
	port   string // port on the sending side
	snpa   net.HardwareAddr
}

// Endpoint is one side of a link.
type Endpoint struct {
	SystemId state.SystemId
	Port     string
	Mac      net.HardwareAddr
}

// Topology is a link-state snapshot, it implements Engine with Dijkstra's algorithm.
type Topology struct {
	edges map[vkey][]edge
}

func NewTopology() *Topology {
	return &Topology{edges: make(map[vkey][]edge)}
}

func (t *Topology) AddRouter(id state.SystemId) {
	k := vkey{id: id}
	if _, ok := t.edges[k]; !ok {
		t.edges[k] = nil
	}
}

// Connect adds a point to point link in both directions.
func (t *Topology) Connect(a, b Endpoint, metric uint32) {
	if metric == 0 {
		metric = state.DefaultSpfMetric
	}
	ka, kb := vkey{id: a.SystemId}, vkey{id: b.SystemId}
	t.edges[ka] = append(t.edges[ka], edge{to: kb, metric: metric, port: a.Port, snpa: b.Mac})
	t.edges[kb] = append(t.edges[kb], edge{to: ka, metric: metric, port: b.Port, snpa: a.Mac})
}

// AddLan adds a broadcast segment. Members reach the pseudo-node at the given
// metric and the pseudo-node reaches every member at no cost.
func (t *Topology) AddLan(dis state.SystemId, pseudo uint8, members []Endpoint, metric uint32) {
	if metric == 0 {
		metric = state.DefaultSpfMetric
	}
	kp := vkey{id: dis, pseudo: pseudo}
	if _, ok := t.edges[kp]; !ok {
		t.edges[kp] = nil
	}
	for _, m := range members {
		km := vkey{id: m.SystemId}
		t.edges[km] = append(t.edges[km], edge{to: kp, metric: metric, port: m.Port})
		t.edges[kp] = append(t.edges[kp], edge{to: km, port: m.Port, snpa: m.Mac})
	}
}

// RemoveRouter drops a router and every link that touches it.
func (t *Topology) RemoveRouter(id state.SystemId) {
	for k, edges := range t.edges {
		if k.id == id {
			delete(t.edges, k)
			continue
		}
		t.edges[k] = slices.DeleteFunc(edges, func(e edge) bool {
			return e.to.id == id
		})
	}
}

func (t *Topology) Routers() []state.SystemId {
	ids := make([]state.SystemId, 0, len(t.edges))
	for k := range t.edges {
		if k.pseudo == 0 {
			ids = append(ids, k.id)
		}
	}
	slices.SortFunc(ids, state.SystemId.Compare)
	return ids
}

type pqItem struct {
	key  vkey
	dist uint32
}

type pq []pqItem

func (q pq) Len() int { return len(q) }
func (q pq) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].key.compare(q[j].key) < 0
}
func (q pq) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *pq) Push(x any)   { *q = append(*q, x.(pqItem)) }
func (q *pq) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

func addMetric(a, b uint32) uint32 {
	if a > ^uint32(0)-b {
		return ^uint32(0)
	}
	return a + b
}

func (t *Topology) distances(root vkey) map[vkey]uint32 {
	dist := map[vkey]uint32{root: 0}
	done := make(map[vkey]bool)
	q := &pq{{key: root}}
	for q.Len() > 0 {
		it := heap.Pop(q).(pqItem)
		if done[it.key] {
			continue
		}
		done[it.key] = true
		for _, e := range t.edges[it.key] {
			if done[e.to] {
				continue
			}
			nd := addMetric(it.dist, e.metric)
			if cur, ok := dist[e.to]; !ok || nd < cur {
				dist[e.to] = nd
				heap.Push(q, pqItem{key: e.to, dist: nd})
			}
		}
	}
	return dist
}

// Compute runs SPF from root. Equal cost parents are all kept.
func (t *Topology) Compute(root state.SystemId) (*Tree, error) {
	rk := vkey{id: root}
	if _, ok := t.edges[rk]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoot, root)
	}
	dist := t.distances(rk)

	// pseudo-nodes sort before routers at the same distance so parents always precede children
	order := make([]vkey, 0, len(dist))
	for k := range dist {
		order = append(order, k)
	}
	slices.SortFunc(order, func(a, b vkey) int {
		if c := cmp.Compare(dist[a], dist[b]); c != 0 {
			return c
		}
		if (a.pseudo == 0) != (b.pseudo == 0) {
			if a.pseudo != 0 {
				return -1
			}
			return 1
		}
		return a.compare(b)
	})

	tree := NewTree()
	ids := make(map[vkey]VertexId, len(order))
	for _, k := range order {
		vid := tree.AddVertex(k.id, k.pseudo)
		tree.Vertex(vid).Distance = dist[k]
		ids[k] = vid
		tree.AddPath(vid)
	}

	// best edge between two vertices, first one wins on a tie
	best := make(map[[2]vkey]edge)
	for from, edges := range t.edges {
		if _, ok := dist[from]; !ok {
			continue
		}
		for _, e := range edges {
			key := [2]vkey{from, e.to}
			if cur, ok := best[key]; !ok || e.metric < cur.metric {
				best[key] = e
			}
		}
	}
	parentsOf := make(map[vkey][]vkey)
	for key, e := range best {
		from, to := key[0], key[1]
		dTo, ok := dist[to]
		if !ok || to == rk {
			continue
		}
		if addMetric(dist[from], e.metric) == dTo {
			parentsOf[to] = append(parentsOf[to], from)
		}
	}

	lanPort := make(map[vkey]string)
	for _, k := range order {
		if k == rk {
			continue
		}
		parents := parentsOf[k]
		slices.SortFunc(parents, func(a, b vkey) int {
			return cmp.Compare(ids[a], ids[b])
		})
		v := ids[k]
		for _, p := range parents {
			tree.Link(ids[p], v)
			e := best[[2]vkey{p, k}]
			vert := tree.Vertex(v)
			switch {
			case p == rk && k.pseudo != 0:
				lanPort[k] = e.port
			case p == rk:
				vert.Adjacencies = appendAdj(vert.Adjacencies, Adjacency{Port: e.port, Neighbor: k.id, Snpa: e.snpa})
			default:
				if port, ok := lanPort[p]; ok && k.pseudo == 0 {
					vert.Adjacencies = appendAdj(vert.Adjacencies, Adjacency{Port: port, Neighbor: k.id, Snpa: e.snpa})
				}
				for _, adj := range tree.Vertex(ids[p]).Adjacencies {
					vert.Adjacencies = appendAdj(vert.Adjacencies, adj)
				}
			}
		}
	}
	return tree, nil
}

func appendAdj(adjs []Adjacency, adj Adjacency) []Adjacency {
	for _, a := range adjs {
		if a.Port == adj.Port && a.Neighbor == adj.Neighbor {
			return adjs
		}
	}
	return append(adjs, adj)
}
