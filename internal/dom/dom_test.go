package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `
<html>
	<body>
		<div class="match-day" data-zone="x">
			<div class="wrapper" data-unix="1767225600000">
				<a href="/matches/1/a-vs-b" class="match">
					<div class="matchTeam"><span class="matchTeamName">Team A</span></div>
					<div class="matchTeam"><span class="matchTeamName">Team B</span></div>
					<script>var x = "ignored";</script>
				</a>
			</div>
		</div>
		<a href="/news/2/other">News</a>
	</body>
</html>`

// sampleFixture mirrors samplePage as an in-memory tree.
func sampleFixture() Node {
	return Fixture(E("html", nil,
		E("body", nil,
			E("div", map[string]string{"class": "match-day", "data-zone": "x"},
				E("div", map[string]string{"class": "wrapper", "data-unix": "1767225600000"},
					E("a", map[string]string{"href": "/matches/1/a-vs-b", "class": "match"},
						E("div", map[string]string{"class": "matchTeam"},
							E("span", map[string]string{"class": "matchTeamName"}, T("Team A"))),
						E("div", map[string]string{"class": "matchTeam"},
							E("span", map[string]string{"class": "matchTeamName"}, T("Team B"))),
					),
				),
			),
			E("a", map[string]string{"href": "/news/2/other"}, T("News")),
		),
	))
}

func backends(t *testing.T) map[string]Node {
	t.Helper()
	parsed, err := ParseString(samplePage)
	require.NoError(t, err)
	return map[string]Node{
		"goquery": parsed,
		"fixture": sampleFixture(),
	}
}

func TestNode_FindAll(t *testing.T) {
	for name, root := range backends(t) {
		t.Run(name, func(t *testing.T) {
			anchors := root.FindAll(`a[href^="/matches/"]`)
			require.Len(t, anchors, 1)

			href, ok := anchors[0].Attr("href")
			assert.True(t, ok)
			assert.Equal(t, "/matches/1/a-vs-b", href)

			names := anchors[0].FindAll(".matchTeamName")
			require.Len(t, names, 2)
			assert.Equal(t, "Team A", Text(names[0]))
			assert.Equal(t, "Team B", Text(names[1]))

			// Group selectors return matches in document order.
			mixed := anchors[0].FindAll(".matchTeam, .matchTeamName")
			assert.Len(t, mixed, 4)
		})
	}
}

func TestNode_FindFirst(t *testing.T) {
	for name, root := range backends(t) {
		t.Run(name, func(t *testing.T) {
			el, ok := root.FindFirst("[data-unix]")
			require.True(t, ok)
			v, _ := el.Attr("data-unix")
			assert.Equal(t, "1767225600000", v)

			_, ok = root.FindFirst(".does-not-exist")
			assert.False(t, ok)
		})
	}
}

func TestNode_FindAncestor(t *testing.T) {
	hasUnix := func(n Node) bool {
		_, ok := n.Attr("data-unix")
		return ok
	}
	hasZone := func(n Node) bool {
		_, ok := n.Attr("data-zone")
		return ok
	}

	for name, root := range backends(t) {
		t.Run(name, func(t *testing.T) {
			anchor, ok := root.FindFirst(`a[href^="/matches/"]`)
			require.True(t, ok)

			found, ok := anchor.FindAncestor(hasUnix, 1)
			require.True(t, ok)
			class, _ := found.Attr("class")
			assert.Equal(t, "wrapper", class)

			// data-zone sits two levels up.
			_, ok = anchor.FindAncestor(hasZone, 1)
			assert.False(t, ok)
			_, ok = anchor.FindAncestor(hasZone, 2)
			assert.True(t, ok)

			// The node itself is never a candidate.
			_, ok = anchor.FindAncestor(func(n Node) bool {
				href, _ := n.Attr("href")
				return href != ""
			}, 4)
			assert.False(t, ok)
		})
	}
}

func TestNode_Fragments(t *testing.T) {
	for name, root := range backends(t) {
		t.Run(name, func(t *testing.T) {
			anchor, ok := root.FindFirst(`a[href^="/matches/"]`)
			require.True(t, ok)
			assert.Equal(t, []string{"Team A", "Team B"}, anchor.Fragments())
			assert.Equal(t, "Team A Team B", Text(anchor))
		})
	}
}

func TestNode_FragmentsCollapseWhitespace(t *testing.T) {
	parsed, err := ParseString("<div><span class=\"matchEventName\">IEM\n      Katowice</span>\t<span> Team\tA </span></div>")
	require.NoError(t, err)

	roots := map[string]Node{
		"goquery": parsed,
		"fixture": Fixture(E("body", nil,
			E("div", nil,
				E("span", map[string]string{"class": "matchEventName"}, T("IEM\n      Katowice")),
				T("\t"),
				E("span", nil, T(" Team\tA ")),
			),
		)),
	}
	for name, root := range roots {
		t.Run(name, func(t *testing.T) {
			marker, ok := root.FindFirst(".matchEventName")
			require.True(t, ok)
			assert.Equal(t, "IEM Katowice", Text(marker))

			div, ok := root.FindFirst("div")
			require.True(t, ok)
			assert.Equal(t, []string{"IEM Katowice", "Team A"}, div.Fragments())
		})
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		selector string
		el       *Element
		want     bool
	}{
		{"a", E("a", nil), true},
		{"a", E("div", nil), false},
		{".team", E("div", map[string]string{"class": "team won"}), true},
		{".team", E("div", map[string]string{"class": "teams"}), false},
		{"[data-unix]", E("div", map[string]string{"data-unix": "1"}), true},
		{`a[href^="/matches/"]`, E("a", map[string]string{"href": "/matches/9"}), true},
		{`a[href^="/matches/"]`, E("a", map[string]string{"href": "/team/9"}), false},
		{`div[class='x']`, E("div", map[string]string{"class": "x"}), true},
		{".a, .b", E("span", map[string]string{"class": "b"}), true},
		{"div.result-score", E("div", map[string]string{"class": "result-score"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got := parseSelector(tt.selector).matches(tt.el)
			if got != tt.want {
				t.Errorf("parseSelector(%q).matches() = %v, want %v", tt.selector, got, tt.want)
			}
		})
	}
}
