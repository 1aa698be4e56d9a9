package resource

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
	"github.com/jeffreasy/agenda-dashboard/internal/cache"
	"github.com/jeffreasy/agenda-dashboard/internal/model"
)

type Rules struct {
	client *api.Client
	cache  *cache.Cache

	Creating Mutation
	Updating Mutation
	Toggling Mutation
	Deleting Mutation
}

// List reads the automation rules of one connected account. A nil account
// id (nothing selected yet) issues no request.
func (r *Rules) List(ctx context.Context, accountID uuid.UUID) (cache.Result[[]model.AutomationRule], error) {
	if accountID == uuid.Nil {
		return cache.Result[[]model.AutomationRule]{}, nil
	}

	key := cache.Key{Resource: resRules, Param: accountID.String()}
	return cache.Fetch(ctx, r.cache, key, cache.Options{TTL: rulesTTL}, func(ctx context.Context) ([]model.AutomationRule, error) {
		wires, err := r.client.ListRules(ctx, accountID.String())
		if err != nil {
			return nil, err
		}
		rules := make([]model.AutomationRule, 0, len(wires))
		for _, w := range wires {
			rule, err := model.RuleFromWire(w)
			if err != nil {
				log.Printf("[WARN] resource: skipping malformed rule: %v", err)
				continue
			}
			rules = append(rules, rule)
		}
		return rules, nil
	})
}

func (r *Rules) Create(ctx context.Context, accountID uuid.UUID, name string, conditions model.TriggerConditions, params model.ActionParams) (model.AutomationRule, error) {
	var created model.AutomationRule
	err := r.Creating.run(func() error {
		wire, err := r.client.CreateRule(ctx, api.CreateRuleRequest{
			ConnectedAccountID: accountID.String(),
			Name:               name,
			TriggerConditions:  model.TriggerToWire(conditions),
			ActionParams:       model.ActionToWire(params),
		})
		if err != nil {
			return err
		}
		created, err = model.RuleFromWire(wire)
		if err != nil {
			return err
		}
		r.cache.Invalidate(cache.Key{Resource: resRules, Param: accountID.String()})
		return nil
	})
	return created, err
}

func (r *Rules) Update(ctx context.Context, ruleID uuid.UUID, name string, conditions model.TriggerConditions, params model.ActionParams) (model.AutomationRule, error) {
	var updated model.AutomationRule
	err := r.Updating.run(func() error {
		wire, err := r.client.UpdateRule(ctx, ruleID.String(), api.UpdateRuleRequest{
			Name:              name,
			TriggerConditions: model.TriggerToWire(conditions),
			ActionParams:      model.ActionToWire(params),
		})
		if err != nil {
			return err
		}
		updated, err = model.RuleFromWire(wire)
		if err != nil {
			return err
		}
		r.cache.Invalidate(cache.Key{Resource: resRules, Param: updated.ConnectedAccountID.String()})
		return nil
	})
	return updated, err
}

func (r *Rules) Toggle(ctx context.Context, ruleID uuid.UUID, isActive bool) (model.AutomationRule, error) {
	var toggled model.AutomationRule
	err := r.Toggling.run(func() error {
		wire, err := r.client.ToggleRule(ctx, ruleID.String(), isActive)
		if err != nil {
			return err
		}
		toggled, err = model.RuleFromWire(wire)
		if err != nil {
			return err
		}
		r.cache.Invalidate(cache.Key{Resource: resRules, Param: toggled.ConnectedAccountID.String()})
		return nil
	})
	return toggled, err
}

// Delete removes a rule. The response carries no body, so the owning
// account is unknown here; every rules key is invalidated.
func (r *Rules) Delete(ctx context.Context, ruleID uuid.UUID) error {
	return r.Deleting.run(func() error {
		if err := r.client.DeleteRule(ctx, ruleID.String()); err != nil {
			return err
		}
		r.cache.InvalidateResource(resRules)
		return nil
	})
}
