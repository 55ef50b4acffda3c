package rule

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"vigor/internal/service/checkout/domain"
)

// CELOfferEngine implements domain.OfferEngine with CEL expressions. Offer
// rules are restricted expressions over the line fact; they cannot reach the
// filesystem, the network or the clock, which is exactly why CEL was chosen
// over embedding a scripting runtime.
//
// A rule sees four variables and must evaluate to the discount percentage:
//
//	quantity >= 3 ? 15.0 : 0.0
//	subtotal > 100.0 && category == "entrenamiento" ? 10.0 : 0.0
type CELOfferEngine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

func NewCELOfferEngine() (*CELOfferEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("product_id", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("quantity", cel.IntType),
		cel.Variable("subtotal", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build offer rule environment: %w", err)
	}
	return &CELOfferEngine{env: env, programs: make(map[string]cel.Program)}, nil
}

// DiscountPercent compiles the offer's rule (cached per rule text) and
// evaluates it against the fact. Non-numeric results are rule bugs and
// reported as errors, which the caller treats as "offer does not apply".
func (e *CELOfferEngine) DiscountPercent(offer *domain.SpecialOffer, fact domain.OfferFact) (float64, error) {
	program, err := e.program(offer.Rule)
	if err != nil {
		return 0, err
	}

	out, _, err := program.Eval(map[string]interface{}{
		"product_id": fact.ProductID,
		"category":   fact.Category,
		"quantity":   int64(fact.Quantity),
		"subtotal":   fact.Subtotal,
	})
	if err != nil {
		return 0, fmt.Errorf("offer rule %s failed to evaluate: %w", offer.ID, err)
	}

	switch v := out.Value().(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("offer rule %s returned %T, want a number", offer.ID, out.Value())
	}
}

func (e *CELOfferEngine) program(ruleText string) (cel.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[ruleText]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	ast, issues := e.env.Compile(ruleText)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("offer rule does not compile: %w", issues.Err())
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("offer rule does not build: %w", err)
	}

	e.mu.Lock()
	e.programs[ruleText] = program
	e.mu.Unlock()
	return program, nil
}
