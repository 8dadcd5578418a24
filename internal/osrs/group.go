package osrs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/validation"
)

const (
	playerRowClass  = "uc-scroll__table-row--type-player"
	skillIconClass  = "ua-skill-icon"
	skillIconPrefix = "ua-skill-icon--"
	skillRowAttr    = "data-js-skill-row-memberid"
)

// LookupGroup fetches a group ironman group page and parses its members.
func (c *Client) LookupGroup(ctx context.Context, name string) (*model.Group, error) {
	if err := validation.ValidateGroupName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	body, err := c.fetch(ctx, fmt.Sprintf("group %q", name), c.groupURL+url.QueryEscape(name), acceptGroup)
	if err != nil {
		return nil, err
	}

	group, err := ParseGroup(strings.NewReader(string(body)), name)
	if err != nil {
		return nil, err
	}
	if len(group.Members) == 0 {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

func acceptGroup(status int, body []byte) error {
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", status)
	}
	text := string(body)
	if strings.Contains(text, "Group not found") {
		return ErrGroupNotFound
	}
	if !strings.Contains(text, "<html") {
		return errInvalidBody
	}
	return nil
}

// ParseGroup extracts members and their skills from a group ironman page.
func ParseGroup(r io.Reader, groupName string) (*model.Group, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse group page: %w", err)
	}

	var playerRows []*html.Node
	skillRows := make(map[string][]*html.Node)
	walk(doc, func(n *html.Node) {
		if !isElement(n, "tr") {
			return
		}
		if hasClass(n, playerRowClass) {
			playerRows = append(playerRows, n)
		}
		if id, ok := attr(n, skillRowAttr); ok {
			skillRows[id] = append(skillRows[id], n)
		}
	})

	group := &model.Group{Name: groupName, Members: []*model.GroupMember{}}
	for _, row := range playerRows {
		link := find(row, func(n *html.Node) bool {
			href, ok := attr(n, "href")
			return isElement(n, "a") && ok && strings.Contains(href, "hiscorepersonal")
		})
		if link == nil {
			continue
		}

		raw := strings.TrimSpace(text(link))
		member := &model.GroupMember{
			Name:         strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " ")),
			OriginalName: raw,
			Skills:       defaultMemberSkills(),
		}
		if cells := cells(row); len(cells) >= 3 {
			member.TotalLevel = int(number(cells[1], 0))
			member.TotalXP = number(cells[2], 0)
		}

		for _, sr := range skillRows[raw] {
			applySkillRow(member.Skills, sr)
		}
		group.Members = append(group.Members, member)
	}
	return group, nil
}

func defaultMemberSkills() map[string]model.SkillStat {
	skills := make(map[string]model.SkillStat, len(HiscoreRows))
	for _, s := range HiscoreRows {
		switch s {
		case "overall":
			skills[s] = model.SkillStat{Rank: -1}
		case "hitpoints":
			skills[s] = model.SkillStat{Rank: -1, Level: 10, XP: 1154}
		default:
			skills[s] = model.SkillStat{Rank: -1, Level: 1}
		}
	}
	return skills
}

func applySkillRow(skills map[string]model.SkillStat, row *html.Node) {
	icon := find(row, func(n *html.Node) bool { return hasClass(n, skillIconClass) })
	if icon == nil {
		return
	}

	var skill string
	class, _ := attr(icon, "class")
	for _, c := range strings.Fields(class) {
		if strings.HasPrefix(c, skillIconPrefix) {
			skill = strings.TrimPrefix(c, skillIconPrefix)
			break
		}
	}
	stat, ok := skills[skill]
	if !ok {
		return
	}

	cs := cells(row)
	if len(cs) < 3 {
		return
	}
	stat.Level = int(number(cs[1], 1))
	stat.XP = number(cs[2], 0)
	skills[skill] = stat
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func cells(row *html.Node) []*html.Node {
	var out []*html.Node
	walk(row, func(n *html.Node) {
		if isElement(n, "td") {
			out = append(out, n)
		}
	})
	return out
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
	})
	return sb.String()
}

// number reads a cell like "1,234". Zero or unparseable values return def.
func number(cell *html.Node, def int64) int64 {
	s := strings.ReplaceAll(strings.TrimSpace(text(cell)), ",", "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n == 0 {
		return def
	}
	return n
}
