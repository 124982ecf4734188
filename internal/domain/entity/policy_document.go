package entity

import (
	"encoding/json"
	"fmt"
)

// Sids usados nos documentos de policy gerenciados pela ferramenta.
const (
	SidLogging             = "Logging"
	SidReadApplicationLogs = "ReadApplicationLogs"
	SidPublishReports      = "PublishReports"
)

// StringOrSlice aceita tanto uma string quanto uma lista de strings,
// como o IAM serializa campos Action/Resource.
type StringOrSlice []string

// UnmarshalJSON implementa json.Unmarshaler.
func (s *StringOrSlice) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// MarshalJSON implementa json.Marshaler.
func (s StringOrSlice) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}

// PolicyPrincipal representa o campo Principal de uma trust policy.
type PolicyPrincipal struct {
	Service StringOrSlice `json:"Service,omitempty"`
	AWS     StringOrSlice `json:"AWS,omitempty"`
}

// PolicyStatement representa um statement de um documento de policy IAM.
type PolicyStatement struct {
	Sid       string           `json:"Sid,omitempty"`
	Effect    string           `json:"Effect"`
	Action    StringOrSlice    `json:"Action,omitempty"`
	Resource  StringOrSlice    `json:"Resource,omitempty"`
	Principal *PolicyPrincipal `json:"Principal,omitempty"`
}

// PolicyDocument representa um documento de policy IAM.
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

// ParsePolicyDocument decodifica um documento JSON de policy.
func ParsePolicyDocument(document string) (*PolicyDocument, error) {
	var doc PolicyDocument
	if err := json.Unmarshal([]byte(document), &doc); err != nil {
		return nil, fmt.Errorf("error parsing policy document: %w", err)
	}
	return &doc, nil
}

// Render serializa o documento como JSON indentado, como os templates originais.
func (d *PolicyDocument) Render() (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error rendering policy document: %w", err)
	}
	return string(data), nil
}

// FindStatement retorna o statement com o Sid informado, ou nil.
func (d *PolicyDocument) FindStatement(sid string) *PolicyStatement {
	for i := range d.Statement {
		if d.Statement[i].Sid == sid {
			return &d.Statement[i]
		}
	}
	return nil
}

// Covers informa se o statement já lista o resource informado.
func (s *PolicyStatement) Covers(resourceArn string) bool {
	for _, r := range s.Resource {
		if r == resourceArn {
			return true
		}
	}
	return false
}

// NewLoggingPolicyDocument monta a policy de logging anexada às aplicações
// e ao monitor (equivalente ao primeiro template JSON dos scripts originais).
func NewLoggingPolicyDocument() *PolicyDocument {
	return &PolicyDocument{
		Version: "2012-10-17",
		Statement: []PolicyStatement{
			{
				Sid:    SidLogging,
				Effect: "Allow",
				Action: StringOrSlice{
					"logs:CreateLogGroup",
					"logs:CreateLogStream",
					"logs:PutLogEvents",
				},
				Resource: StringOrSlice{"arn:aws:logs:*:*:*"},
			},
		},
	}
}

// NewMonitorPolicyDocument monta a policy de acesso do monitor. A lista de
// resources do statement de leitura é o ponto de substituição do template
// original: cada aplicação enrolada acrescenta o ARN do seu log group.
func NewMonitorPolicyDocument(logGroupArns []string, topicArn string) *PolicyDocument {
	return &PolicyDocument{
		Version: "2012-10-17",
		Statement: []PolicyStatement{
			{
				Sid:    SidReadApplicationLogs,
				Effect: "Allow",
				Action: StringOrSlice{
					"logs:DescribeLogStreams",
					"logs:FilterLogEvents",
					"logs:GetLogEvents",
				},
				Resource: StringOrSlice(logGroupArns),
			},
			{
				Sid:      SidPublishReports,
				Effect:   "Allow",
				Action:   StringOrSlice{"sns:Publish"},
				Resource: StringOrSlice{topicArn},
			},
		},
	}
}

// NewTrustPolicyDocument monta a trust policy da role do monitor.
func NewTrustPolicyDocument(service string) *PolicyDocument {
	return &PolicyDocument{
		Version: "2012-10-17",
		Statement: []PolicyStatement{
			{
				Effect:    "Allow",
				Action:    StringOrSlice{"sts:AssumeRole"},
				Principal: &PolicyPrincipal{Service: StringOrSlice{service}},
			},
		},
	}
}
