package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fees-api/internal/dto"
	"github.com/noah-isme/sma-fees-api/internal/models"
	appErrors "github.com/noah-isme/sma-fees-api/pkg/errors"
)

type contextBuilder interface {
	BuildContext(ctx context.Context, studentID string) (*dto.StudentPaymentContext, error)
}

// AllocationService proposes and validates payment splits. Both operations
// re-fetch the context so they never work against stale balances; the
// split itself is a pure computation over that snapshot.
type AllocationService struct {
	contexts contextBuilder
	logger   *zap.Logger
}

// NewAllocationService constructs AllocationService.
func NewAllocationService(contexts contextBuilder, logger *zap.Logger) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{contexts: contexts, logger: logger}
}

// candidate is one component eligible for allocation, tagged with the
// attributes the strategies sort on. Candidate order follows structure
// order, then component order within a structure; every strategy falls
// back to that order when its sort keys tie.
type candidate struct {
	componentID   string
	componentName string
	structureID   string
	structureName string
	balance       decimal.Decimal
	isOverdue     bool
	priority      int
}

// Suggest proposes a component-level split of amount using the given
// strategy. The engine never over-allocates: any amount beyond the total
// outstanding balance is returned as Unallocated.
func (s *AllocationService) Suggest(ctx context.Context, studentID string, req dto.SuggestAllocationRequest) (*dto.SuggestAllocationResponse, error) {
	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment amount must be greater than zero")
	}
	if !req.Strategy.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown allocation strategy %q", req.Strategy))
	}

	paymentContext, err := s.contexts.BuildContext(ctx, studentID)
	if err != nil {
		return nil, err
	}

	candidates := collectCandidates(paymentContext)
	var proposals []dto.SuggestedAllocation
	switch req.Strategy {
	case models.StrategyOverdueFirst:
		proposals = allocateGreedy(sortedCandidates(candidates, overdueFirstLess), req.Amount)
	case models.StrategyPriorityBased:
		proposals = allocateGreedy(sortedCandidates(candidates, priorityBasedLess), req.Amount)
	case models.StrategyProportional:
		proposals = allocateProportional(candidates, req.Amount)
	}

	totalAllocated := decimal.Zero
	for _, p := range proposals {
		totalAllocated = totalAllocated.Add(p.Amount)
	}

	return &dto.SuggestAllocationResponse{
		Strategy:       req.Strategy,
		Allocations:    proposals,
		TotalAllocated: totalAllocated,
		Unallocated:    req.Amount.Sub(totalAllocated),
	}, nil
}

// Validate checks proposed allocation lines against freshly fetched
// balances. The result is advisory: the payment recorder performs its own
// authoritative re-check at commit time.
func (s *AllocationService) Validate(ctx context.Context, studentID string, req dto.ValidateAllocationRequest) (*dto.ValidationResult, error) {
	paymentContext, err := s.contexts.BuildContext(ctx, studentID)
	if err != nil {
		return nil, err
	}

	componentsByID := make(map[string]dto.ComponentContext)
	for _, structure := range paymentContext.FeeStructures {
		for _, component := range structure.Components {
			componentsByID[component.ID] = component
		}
	}

	result := &dto.ValidationResult{Errors: []string{}, Warnings: []string{}}
	total := decimal.Zero
	perComponent := make(map[string]decimal.Decimal)
	componentOrder := make([]string, 0, len(req.Allocations))
	for _, line := range req.Allocations {
		component, ok := componentsByID[line.FeeComponentID]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("unknown fee component %s", line.FeeComponentID))
			continue
		}
		if !line.Amount.GreaterThan(decimal.Zero) {
			result.Errors = append(result.Errors, fmt.Sprintf("allocation for %s must be greater than zero", component.Name))
			continue
		}
		total = total.Add(line.Amount)
		if _, seen := perComponent[line.FeeComponentID]; !seen {
			componentOrder = append(componentOrder, line.FeeComponentID)
		}
		perComponent[line.FeeComponentID] = perComponent[line.FeeComponentID].Add(line.Amount)
	}

	// Balance checks run on the per-component sums, so splitting an
	// over-allocation across duplicate lines is still rejected.
	for _, componentID := range componentOrder {
		component := componentsByID[componentID]
		amount := perComponent[componentID]
		if amount.GreaterThan(component.Balance) {
			result.Errors = append(result.Errors, fmt.Sprintf("allocation of %s to %s exceeds current balance of %s",
				amount.StringFixed(2), component.Name, component.Balance.StringFixed(2)))
			continue
		}
		if amount.Equal(component.Balance) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s will be fully paid", component.Name))
		}
	}
	if total.IsZero() {
		result.Errors = append(result.Errors, "allocation total must be greater than zero")
	}

	result.IsValid = len(result.Errors) == 0
	return result, nil
}

func collectCandidates(paymentContext *dto.StudentPaymentContext) []candidate {
	var candidates []candidate
	for _, structure := range paymentContext.FeeStructures {
		for _, component := range structure.Components {
			if !component.Balance.GreaterThan(decimal.Zero) {
				continue
			}
			priority := 1<<31 - 1
			if component.Priority != nil {
				priority = *component.Priority
			}
			candidates = append(candidates, candidate{
				componentID:   component.ID,
				componentName: component.Name,
				structureID:   structure.ID,
				structureName: structure.Name,
				balance:       component.Balance,
				isOverdue:     component.Status == models.FeeStatusOverdue,
				priority:      priority,
			})
		}
	}
	return candidates
}

// overdueFirstLess sorts overdue components ahead of current ones, then by
// ascending priority.
func overdueFirstLess(a, b candidate) bool {
	if a.isOverdue != b.isOverdue {
		return a.isOverdue
	}
	return a.priority < b.priority
}

// priorityBasedLess sorts by ascending priority; overdue status only breaks
// priority ties.
func priorityBasedLess(a, b candidate) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.isOverdue && !b.isOverdue
}

// sortedCandidates returns a stable-sorted copy so the candidate order
// remains the deterministic tie-break.
func sortedCandidates(candidates []candidate, less func(a, b candidate) bool) []candidate {
	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted
}

func allocateGreedy(candidates []candidate, amount decimal.Decimal) []dto.SuggestedAllocation {
	remaining := amount
	var proposals []dto.SuggestedAllocation
	for _, cand := range candidates {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		take := decimal.Min(remaining, cand.balance)
		proposals = append(proposals, suggested(cand, take))
		remaining = remaining.Sub(take)
	}
	return proposals
}

// allocateProportional splits by each candidate's share of the total
// outstanding balance. Rounding drift is not topped up; it surfaces to the
// caller as an unallocated remainder.
func allocateProportional(candidates []candidate, amount decimal.Decimal) []dto.SuggestedAllocation {
	totalOutstanding := decimal.Zero
	for _, cand := range candidates {
		totalOutstanding = totalOutstanding.Add(cand.balance)
	}
	if !totalOutstanding.GreaterThan(decimal.Zero) {
		return nil
	}

	var proposals []dto.SuggestedAllocation
	for _, cand := range candidates {
		share := amount.Mul(cand.balance).Div(totalOutstanding).Round(2)
		if share.GreaterThan(cand.balance) {
			share = cand.balance
		}
		if share.IsZero() {
			continue
		}
		proposals = append(proposals, suggested(cand, share))
	}
	return proposals
}

func suggested(cand candidate, amount decimal.Decimal) dto.SuggestedAllocation {
	return dto.SuggestedAllocation{
		FeeComponentID:   cand.componentID,
		ComponentName:    cand.componentName,
		FeeStructureID:   cand.structureID,
		FeeStructureName: cand.structureName,
		Amount:           amount,
		ComponentBalance: cand.balance,
		IsOverdue:        cand.isOverdue,
	}
}
