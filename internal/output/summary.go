package output

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/backscan/backscan/internal/probe"
)

type pathNode struct {
	name     string
	children []*pathNode
}

func (n *pathNode) findOrCreate(name string) *pathNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	child := &pathNode{name: name}
	n.children = append(n.children, child)
	return child
}

// PrintHostSummary renders a per-host summary of discoveries: a count per
// host followed by a tree of the discovered paths.
func PrintHostSummary(w io.Writer, discoveries []probe.Discovery) {
	if len(discoveries) == 0 {
		return
	}

	byHost := make(map[string][]string)
	for _, d := range discoveries {
		u, err := url.Parse(d.URL)
		if err != nil {
			continue
		}
		byHost[u.Host] = append(byHost[u.Host], strings.Trim(u.Path, "/"))
	}

	hosts := make([]string, 0, len(byHost))
	for h := range byHost {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	for _, host := range hosts {
		paths := byHost[host]
		sort.Strings(paths)

		seen := make(map[string]bool, len(paths))
		root := &pathNode{name: host}
		for _, p := range paths {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			node := root
			for _, part := range strings.Split(p, "/") {
				node = node.findOrCreate(part)
			}
		}

		fmt.Fprintf(w, "\n  %s (%d found):\n", host, len(paths))
		printChildren(w, root, "  ")
	}
}

func printChildren(w io.Writer, node *pathNode, prefix string) {
	for i, child := range node.children {
		isLast := i == len(node.children)-1
		connector := "├── "
		if isLast {
			connector = "└── "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, connector, child.name)
		nextPrefix := prefix + "│   "
		if isLast {
			nextPrefix = prefix + "    "
		}
		printChildren(w, child, nextPrefix)
	}
}
