package extract

import (
	"strings"

	"github.com/ppiankov/estatescout/internal/dom"
	"github.com/ppiankov/estatescout/internal/model"
)

// Role is a party's part in an estate case
type Role string

const (
	RoleDecedent    Role = "decedent"
	RoleExecutor    Role = "executor"
	RoleBeneficiary Role = "beneficiary"
	RoleUnknown     Role = "unknown"
)

// PartyAssignment is the outcome of classifying one party table
type PartyAssignment struct {
	Parties       model.Parties
	DecedentRows  int
	ExecutorRows  int
	Beneficiaries int
}

// partyColumns holds column positions; -1 when the header lacks one
type partyColumns struct {
	kind, name, address, city, state, zip, phone int
}

// ClassifyRole maps a party type (and name) to a role. Rules are checked in
// order and the first hit wins.
func ClassifyRole(partyType, name string) Role {
	lower := strings.ToLower(partyType)
	switch {
	case containsAny(lower, []string{"petitioner", "plaintiff", "estate"}) ||
		strings.Contains(strings.ToUpper(name), "ESTATE OF"):
		return RoleDecedent
	case containsAny(lower, []string{"executor", "administrator", "personal representative"}):
		return RoleExecutor
	case containsAny(lower, []string{"heir", "beneficiary", "devisee", "respondent"}):
		return RoleBeneficiary
	default:
		return RoleUnknown
	}
}

// ClassifyParties reads a party table. The header is the first row whose
// text mentions "party type" or "party name"; rows after it become people.
// Decedent and executor are last-writer-wins; beneficiaries accumulate.
// ok is false when no header row exists.
func ClassifyParties(table *dom.Table) (PartyAssignment, bool) {
	var result PartyAssignment
	if table == nil {
		return result, false
	}

	headerAt := -1
	for i, row := range table.Rows {
		if containsAny(row.Text, partyHeaderMarkers) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return result, false
	}

	cols := locateColumns(table.Rows[headerAt])

	for _, row := range table.Rows[headerAt+1:] {
		data := dataCells(row)
		if len(data) < 2 {
			continue
		}
		name := cellText(data, cols.name)
		if name == "" || strings.Contains(strings.ToLower(name), "party") {
			continue
		}

		person := model.PersonRecord{
			Name:    name,
			Address: cellText(data, cols.address),
			City:    cellText(data, cols.city),
			State:   cellText(data, cols.state),
			Zip:     cellText(data, cols.zip),
			Phone:   cellText(data, cols.phone),
		}

		switch ClassifyRole(cellText(data, cols.kind), name) {
		case RoleDecedent:
			result.Parties.Decedent = person
			result.DecedentRows++
		case RoleExecutor:
			result.Parties.Executor = person
			result.ExecutorRows++
		case RoleBeneficiary:
			result.Parties.Beneficiaries = append(result.Parties.Beneficiaries, person)
			result.Beneficiaries++
		}
	}

	return result, true
}

func locateColumns(header dom.Row) partyColumns {
	names := make([]string, len(header.Cells))
	for i, c := range header.Cells {
		names[i] = strings.ToLower(c.Text)
	}
	find := func(key string) int {
		for i, n := range names {
			if strings.Contains(n, key) {
				return i
			}
		}
		return -1
	}
	return partyColumns{
		kind:    find("type"),
		name:    find("name"),
		address: find("address"),
		city:    find("city"),
		state:   find("state"),
		zip:     find("zip"),
		phone:   find("phone"),
	}
}

// dataCells keeps td cells only; row headers would shift the columns
func dataCells(row dom.Row) []dom.Cell {
	data := make([]dom.Cell, 0, len(row.Cells))
	for _, c := range row.Cells {
		if !c.Header {
			data = append(data, c)
		}
	}
	return data
}

func cellText(cells []dom.Cell, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i].Text)
}

// DecedentFromText pulls the decedent's name out of an "ESTATE OF ..." phrase
func DecedentFromText(text string) (string, bool) {
	m := decedentPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name := m[2]
	// The capture can run into the next cell
	if i := strings.IndexByte(name, '\t'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimRight(strings.TrimSpace(name), " ,.-")
	return name, name != ""
}

// PartiesFromSection parses the rendered "Party Information" section line by
// line. A role keyword opens a block; an all-caps line names the person; a
// line with digits and capitals is an address line.
func PartiesFromSection(text string) model.Parties {
	var parties model.Parties
	var role Role
	var current *model.PersonRecord

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.Contains(line, "Decedent"):
			role, current = RoleDecedent, nil
		case strings.Contains(line, "Administrator") || strings.Contains(line, "Executor"):
			role, current = RoleExecutor, nil
		case strings.Contains(line, "Beneficiary"):
			role, current = RoleBeneficiary, nil
		case sectionNameLine.MatchString(line) && role != "":
			name := strings.TrimSpace(line)
			switch role {
			case RoleDecedent:
				parties.Decedent = model.PersonRecord{Name: name}
				current = &parties.Decedent
			case RoleExecutor:
				parties.Executor = model.PersonRecord{Name: name}
				current = &parties.Executor
			case RoleBeneficiary:
				parties.Beneficiaries = append(parties.Beneficiaries, model.PersonRecord{Name: name})
				current = &parties.Beneficiaries[len(parties.Beneficiaries)-1]
			}
		case sectionAddressLine.MatchString(line) && current != nil:
			current.Address = strings.TrimSpace(current.Address + " " + line)
		}
	}

	return parties
}
