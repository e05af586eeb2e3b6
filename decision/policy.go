package decision

// PolicyVersion is the IAM policy language version.
const PolicyVersion = "2012-10-17"

// InvokeAction is the API Gateway action a policy statement governs.
const InvokeAction = "execute-api:Invoke"

// Policy is the custom authorizer response understood by API Gateway.
type Policy struct {
	PrincipalID    string         `json:"principalId"`
	PolicyDocument PolicyDocument `json:"policyDocument"`
	Context        map[string]any `json:"context"`
}

// PolicyDocument is an IAM policy document.
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is a single IAM policy statement.
type Statement struct {
	Action   string `json:"Action"`
	Effect   Effect `json:"Effect"`
	Resource string `json:"Resource"`
}

// Policy renders the decision as an API Gateway authorizer response.
func (d *Decision) Policy() Policy {
	context := d.Context
	if context == nil {
		context = map[string]any{}
	}

	return Policy{
		PrincipalID: d.PrincipalID,
		PolicyDocument: PolicyDocument{
			Version: PolicyVersion,
			Statement: []Statement{{
				Action:   InvokeAction,
				Effect:   d.Effect,
				Resource: d.Resource,
			}},
		},
		Context: context,
	}
}
