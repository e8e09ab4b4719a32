package app

import (
	"context"
	"strconv"

	"github.com/hylla/hoshu/internal/domain"
)

// seedNode is one record of the demo hierarchy.
type seedNode struct {
	name     string
	code     string
	cycle    float64
	install  string
	specs    []domain.Spec
	plan     []int
	actual   []int
	cost     float64
	children []seedNode
}

// seedTree is the plant/equipment hierarchy created for an empty database.
// plan and actual hold year offsets from the current year.
var seedTree = []seedNode{
	{name: "Main Plant", code: "PL-01", children: []seedNode{
		{name: "Cooling System", code: "CS-01", children: []seedNode{
			{name: "Cooling Water Pump A", code: "P-101", cycle: 2, install: "2016-04-01",
				specs: []domain.Spec{{Key: "power", Value: "15kW", Order: 0}, {Key: "flow", Value: "120m3/h", Order: 1}},
				plan:  []int{-1, 1, 3}, actual: []int{-1}, cost: 180},
			{name: "Cooling Water Pump B", code: "P-102", cycle: 2, install: "2016-04-01",
				specs: []domain.Spec{{Key: "power", Value: "15kW", Order: 0}, {Key: "flow", Value: "120m3/h", Order: 1}},
				plan:  []int{0, 2, 4}, actual: []int{0}, cost: 180},
			{name: "Cooling Tower", code: "CT-01", cycle: 5, install: "2012-10-15",
				specs: []domain.Spec{{Key: "capacity", Value: "500RT", Order: 2}},
				plan:  []int{3}, cost: 2400},
		}},
		{name: "Electrical", code: "EL-01", children: []seedNode{
			{name: "Main Transformer", code: "TR-01", cycle: 3, install: "2010-06-30",
				specs: []domain.Spec{{Key: "voltage", Value: "6.6kV/420V", Order: 3}, {Key: "power", Value: "1000kVA", Order: 0}},
				plan:  []int{1, 4}, cost: 950},
			{name: "Switchgear", code: "SG-01", cycle: 1, install: "2010-06-30",
				specs: []domain.Spec{{Key: "voltage", Value: "6.6kV", Order: 3}},
				plan:  []int{0, 1, 2, 3, 4}, actual: []int{-1, 0}, cost: 60},
		}},
	}},
	{name: "Office Building", code: "OB-01", children: []seedNode{
		{name: "Air Handling Unit", code: "AHU-1", cycle: 1, install: "2018-03-20",
			specs: []domain.Spec{{Key: "flow", Value: "8000m3/h", Order: 1}},
			plan:  []int{0, 1, 2, 3, 4}, actual: []int{0}, cost: 35},
		{name: "Elevator", code: "EV-1", cycle: 1, install: "2018-03-20",
			plan: []int{0, 1, 2, 3, 4}, cost: 80},
	}},
}

// EnsureSeedRecords stores the demo hierarchy when no records exist and
// returns how many records were created.
func (s *Service) EnsureSeedRecords(ctx context.Context) (int, error) {
	existing, err := s.repo.ListRecords(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	now := s.clock()
	year := now.Year()
	records := make([]domain.Record, 0, 16)
	var walk func(nodes []seedNode, parentID string) error
	walk = func(nodes []seedNode, parentID string) error {
		for idx, node := range nodes {
			results := map[string]domain.PeriodResult{}
			for _, offset := range node.plan {
				key := strconv.Itoa(year + offset)
				res := results[key]
				res.Planned = true
				res.PlanCost = node.cost
				results[key] = res
			}
			for _, offset := range node.actual {
				key := strconv.Itoa(year + offset)
				res := results[key]
				res.Actual = true
				res.ActualCost = node.cost
				results[key] = res
			}
			rec, err := domain.NewRecord(domain.RecordInput{
				ID:        s.idGen(),
				ParentID:  parentID,
				Position:  idx,
				Name:      node.name,
				Code:      node.code,
				Cycle:     node.cycle,
				Installed: node.install,
				Specs:     node.specs,
				Results:   results,
			}, now)
			if err != nil {
				return err
			}
			rec.CreatedByActor = "hoshu-seed"
			rec.Touch("hoshu-seed", domain.ActorTypeSystem, now)
			records = append(records, rec)
			if err := walk(node.children, rec.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(seedTree, ""); err != nil {
		return 0, err
	}
	if err := s.repo.ReplaceRecords(ctx, records, domain.ChangeOperationCreate); err != nil {
		return 0, err
	}
	return len(records), nil
}
