package dynamo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// updateExpr is a rendered UpdateExpression with its placeholder maps.
type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET expression.
func buildUpdateExpr(updates map[string]interface{}) (*updateExpr, error) {
	return buildUpdate(updates, nil)
}

// buildUpdate renders SET clauses for set and ADD clauses for add. Keys are
// emitted in sorted order so the expression is deterministic. Values that are
// already types.AttributeValue are used as-is; everything else is marshalled.
func buildUpdate(set, add map[string]interface{}) (*updateExpr, error) {
	ue := &updateExpr{
		Names:  make(map[string]string),
		Values: make(map[string]types.AttributeValue),
	}
	i := 0
	render := func(fields map[string]interface{}, format string) ([]string, error) {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		clauses := make([]string, 0, len(keys))
		for _, k := range keys {
			if k == "" {
				return nil, errors.New("empty attribute name")
			}
			av, err := toAttributeValue(fields[k])
			if err != nil {
				return nil, fmt.Errorf("marshal field %s: %w", k, err)
			}
			nameKey := fmt.Sprintf("#f%d", i)
			valueKey := fmt.Sprintf(":v%d", i)
			ue.Names[nameKey] = k
			ue.Values[valueKey] = av
			clauses = append(clauses, fmt.Sprintf(format, nameKey, valueKey))
			i++
		}
		return clauses, nil
	}

	setClauses, err := render(set, "%s = %s")
	if err != nil {
		return nil, err
	}
	addClauses, err := render(add, "%s %s")
	if err != nil {
		return nil, err
	}
	if i == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	var parts []string
	if len(setClauses) > 0 {
		parts = append(parts, "SET "+strings.Join(setClauses, ", "))
	}
	if len(addClauses) > 0 {
		parts = append(parts, "ADD "+strings.Join(addClauses, ", "))
	}
	ue.Expr = strings.Join(parts, " ")
	return ue, nil
}

func toAttributeValue(v interface{}) (types.AttributeValue, error) {
	if av, ok := v.(types.AttributeValue); ok {
		return av, nil
	}
	return attributevalue.Marshal(v)
}

// numberAV builds a numeric attribute value, used for ADD counters.
func numberAV(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", n)}
}

// timestampAV encodes t the same way attributevalue encodes time.Time fields.
func timestampAV(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: t.UTC().Format(time.RFC3339Nano)}
}
