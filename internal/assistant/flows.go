package assistant

import (
	"context"
	"fmt"
	"strconv"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// PlanInput describes a savings goal for the plan flow.
type PlanInput struct {
	Goal            string  `json:"goal" jsonschema:"description=The financial goal to achieve (e.g. saving for a vacation, buying a car)."`
	CurrentSavings  float64 `json:"currentSavings" jsonschema:"description=The current amount of savings."`
	MonthlyIncome   float64 `json:"monthlyIncome" jsonschema:"description=The user's monthly income."`
	MonthlyExpenses float64 `json:"monthlyExpenses" jsonschema:"description=The user's monthly expenses."`
}

// PlanOutput is the generated plan.
type PlanOutput struct {
	Plan string `json:"plan" jsonschema:"description=A detailed financial plan to achieve the specified goal."`
}

// RecommendationsInput describes the user's finances and footprint for
// the recommendations flow.
type RecommendationsInput struct {
	Income          float64 `json:"income" jsonschema:"description=The user's monthly income."`
	Expenses        float64 `json:"expenses" jsonschema:"description=The user's monthly expenses."`
	CarbonFootprint float64 `json:"carbonFootprint" jsonschema:"description=The user's current carbon footprint."`
	Location        string  `json:"location" jsonschema:"description=The user's current location."`
	SpendingData    string  `json:"spendingData" jsonschema:"description=A description of the user's spending habits."`
}

// RecommendationsOutput pairs financial advice with lifestyle
// adjustments that reduce environmental impact.
type RecommendationsOutput struct {
	FinancialRecommendations string `json:"financialRecommendations" jsonschema:"description=Personalized recommendations for financial decisions."`
	LifestyleAdjustments     string `json:"lifestyleAdjustments" jsonschema:"description=Personalized recommendations for lifestyle adjustments to reduce environmental impact."`
}

// num renders an amount without a trailing fractional part so prompts
// read "50000" rather than "50000.000000".
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func planPrompt(in PlanInput) string {
	return fmt.Sprintf(`You are a personal finance advisor. You will generate a personalized financial plan to achieve the user's goal.

Consider the user's current savings, monthly income, and monthly expenses to make appropriate recommendations.

Goal: %s
Current Savings: %s
Monthly Income: %s
Monthly Expenses: %s

Provide a clear and actionable plan with specific steps and recommendations.`,
		in.Goal, num(in.CurrentSavings), num(in.MonthlyIncome), num(in.MonthlyExpenses))
}

func recommendationsPrompt(in RecommendationsInput) string {
	return fmt.Sprintf(`You are an AI assistant that provides personalized financial and lifestyle recommendations to reduce environmental impact.

Based on the user's income, expenses, carbon footprint, location, and spending data, provide recommendations for financial decisions and lifestyle adjustments.

Income: %s
Expenses: %s
Carbon Footprint: %s
Location: %s
Spending Data: %s

Provide clear and actionable recommendations in the output.`,
		num(in.Income), num(in.Expenses), num(in.CarbonFootprint), in.Location, in.SpendingData)
}

// DefineAdvisorFlows registers the one-shot advisory flows. Unlike the
// assistant turn these carry no conversation state and call no tools:
// structured input in, one structured generation out.
func DefineAdvisorFlows(g *genkit.Genkit, modelName string) {
	genkit.DefineFlow(g, "generateFinancialPlans",
		func(ctx context.Context, input PlanInput) (PlanOutput, error) {
			resp, err := genkit.Generate(ctx, g,
				ai.WithModelName(modelName),
				ai.WithPrompt(planPrompt(input)),
				ai.WithOutputType(PlanOutput{}),
			)
			if err != nil {
				return PlanOutput{}, fmt.Errorf("generating financial plan: %w", err)
			}
			var out PlanOutput
			if err := resp.Output(&out); err != nil {
				return PlanOutput{}, fmt.Errorf("decoding financial plan: %w", err)
			}
			return out, nil
		})

	genkit.DefineFlow(g, "generateFinancialRecommendations",
		func(ctx context.Context, input RecommendationsInput) (RecommendationsOutput, error) {
			resp, err := genkit.Generate(ctx, g,
				ai.WithModelName(modelName),
				ai.WithPrompt(recommendationsPrompt(input)),
				ai.WithOutputType(RecommendationsOutput{}),
			)
			if err != nil {
				return RecommendationsOutput{}, fmt.Errorf("generating recommendations: %w", err)
			}
			var out RecommendationsOutput
			if err := resp.Output(&out); err != nil {
				return RecommendationsOutput{}, fmt.Errorf("decoding recommendations: %w", err)
			}
			return out, nil
		})
}
