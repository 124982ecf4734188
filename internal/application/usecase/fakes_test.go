package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
	"github.com/diillson/aws-lambda-monitoring-go/internal/shared/types"
)

// fakeAWSRepository é um AWSRepository em memória que contabiliza mutações.
type fakeAWSRepository struct {
	profiles  []string
	accountID string
	region    string

	policies     map[string]*entity.Policy
	policyDocs   map[string]map[string]string // arn -> versionID -> document
	versions     map[string][]entity.PolicyVersion
	nextVersion  map[string]int
	roles        map[string]*entity.Role
	attachments  map[string][]string
	topics       map[string]*entity.Topic
	subs         map[string][]entity.Subscription
	subPolicies  map[string]string // subscription arn -> filter policy
	functions    map[string]*entity.Function
	functionSpec map[string]entity.FunctionSpec
	invokePerms  map[string]map[string]bool
	logGroups    map[string]*entity.LogGroup
	filters      map[string]entity.SubscriptionFilter // logGroup/filterName
	s3Objects    map[string]bool

	mutations int
}

func newFakeAWSRepository() *fakeAWSRepository {
	return &fakeAWSRepository{
		profiles:     []string{"default"},
		accountID:    "123456789012",
		region:       "us-east-1",
		policies:     map[string]*entity.Policy{},
		policyDocs:   map[string]map[string]string{},
		versions:     map[string][]entity.PolicyVersion{},
		nextVersion:  map[string]int{},
		roles:        map[string]*entity.Role{},
		attachments:  map[string][]string{},
		topics:       map[string]*entity.Topic{},
		subs:         map[string][]entity.Subscription{},
		subPolicies:  map[string]string{},
		functions:    map[string]*entity.Function{},
		functionSpec: map[string]entity.FunctionSpec{},
		invokePerms:  map[string]map[string]bool{},
		logGroups:    map[string]*entity.LogGroup{},
		filters:      map[string]entity.SubscriptionFilter{},
		s3Objects:    map[string]bool{},
	}
}

func (f *fakeAWSRepository) GetAWSProfiles() []string { return f.profiles }
func (f *fakeAWSRepository) SetRegion(region string) {
	if region != "" {
		f.region = region
	}
}

func (f *fakeAWSRepository) GetAccountID(ctx context.Context, profile string) (string, error) {
	return f.accountID, nil
}

func (f *fakeAWSRepository) GetRegion(ctx context.Context, profile string) (string, error) {
	return f.region, nil
}

func (f *fakeAWSRepository) FindPolicy(ctx context.Context, profile, name string) (*entity.Policy, error) {
	return f.policies[name], nil
}

func (f *fakeAWSRepository) CreatePolicy(ctx context.Context, profile, name, description, document string) (*entity.Policy, error) {
	f.mutations++
	arn := fmt.Sprintf("arn:aws:iam::%s:policy/%s", f.accountID, name)
	policy := &entity.Policy{Name: name, Arn: arn, DefaultVersionID: "v1"}
	f.policies[name] = policy
	f.policyDocs[arn] = map[string]string{"v1": document}
	f.versions[arn] = []entity.PolicyVersion{{VersionID: "v1", IsDefault: true, CreateDate: time.Now()}}
	f.nextVersion[arn] = 2
	return policy, nil
}

func (f *fakeAWSRepository) GetPolicyDocument(ctx context.Context, profile, policyArn, versionID string) (string, error) {
	doc, ok := f.policyDocs[policyArn][versionID]
	if !ok {
		return "", fmt.Errorf("no such policy version: %s %s", policyArn, versionID)
	}
	return doc, nil
}

func (f *fakeAWSRepository) ListPolicyVersions(ctx context.Context, profile, policyArn string) ([]entity.PolicyVersion, error) {
	return f.versions[policyArn], nil
}

func (f *fakeAWSRepository) CreatePolicyVersion(ctx context.Context, profile, policyArn, document string) error {
	f.mutations++
	versionID := fmt.Sprintf("v%d", f.nextVersion[policyArn])
	f.nextVersion[policyArn]++
	for i := range f.versions[policyArn] {
		f.versions[policyArn][i].IsDefault = false
	}
	f.versions[policyArn] = append(f.versions[policyArn], entity.PolicyVersion{
		VersionID:  versionID,
		IsDefault:  true,
		CreateDate: time.Now(),
	})
	f.policyDocs[policyArn][versionID] = document
	for _, p := range f.policies {
		if p.Arn == policyArn {
			p.DefaultVersionID = versionID
		}
	}
	return nil
}

func (f *fakeAWSRepository) DeletePolicyVersion(ctx context.Context, profile, policyArn, versionID string) error {
	f.mutations++
	kept := f.versions[policyArn][:0]
	for _, v := range f.versions[policyArn] {
		if v.VersionID != versionID {
			kept = append(kept, v)
		}
	}
	f.versions[policyArn] = kept
	delete(f.policyDocs[policyArn], versionID)
	return nil
}

func (f *fakeAWSRepository) FindRole(ctx context.Context, profile, name string) (*entity.Role, error) {
	return f.roles[name], nil
}

func (f *fakeAWSRepository) CreateRole(ctx context.Context, profile, name, description, trustDocument string) (*entity.Role, error) {
	f.mutations++
	role := &entity.Role{Name: name, Arn: fmt.Sprintf("arn:aws:iam::%s:role/%s", f.accountID, name)}
	f.roles[name] = role
	return role, nil
}

func (f *fakeAWSRepository) ListAttachedRolePolicies(ctx context.Context, profile, roleName string) ([]string, error) {
	return f.attachments[roleName], nil
}

func (f *fakeAWSRepository) AttachRolePolicy(ctx context.Context, profile, roleName, policyArn string) error {
	f.mutations++
	f.attachments[roleName] = append(f.attachments[roleName], policyArn)
	return nil
}

func (f *fakeAWSRepository) FindTopic(ctx context.Context, profile, name string) (*entity.Topic, error) {
	return f.topics[name], nil
}

func (f *fakeAWSRepository) CreateTopic(ctx context.Context, profile, name string) (*entity.Topic, error) {
	f.mutations++
	topic := &entity.Topic{Name: name, Arn: fmt.Sprintf("arn:aws:sns:%s:%s:%s", f.region, f.accountID, name)}
	f.topics[name] = topic
	return topic, nil
}

func (f *fakeAWSRepository) ListSubscriptions(ctx context.Context, profile, topicArn string) ([]entity.Subscription, error) {
	return f.subs[topicArn], nil
}

func (f *fakeAWSRepository) Subscribe(ctx context.Context, profile, topicArn, protocol, endpoint, filterPolicy string) (*entity.Subscription, error) {
	f.mutations++
	sub := entity.Subscription{
		Arn:      fmt.Sprintf("%s:%d", topicArn, len(f.subs[topicArn])+1),
		Protocol: protocol,
		Endpoint: endpoint,
	}
	f.subs[topicArn] = append(f.subs[topicArn], sub)
	f.subPolicies[sub.Arn] = filterPolicy
	return &sub, nil
}

func (f *fakeAWSRepository) FindFunction(ctx context.Context, profile, name string) (*entity.Function, error) {
	return f.functions[name], nil
}

func (f *fakeAWSRepository) CreateFunction(ctx context.Context, profile string, spec entity.FunctionSpec) (*entity.Function, error) {
	f.mutations++
	fn := &entity.Function{
		Name:    spec.Name,
		Arn:     fmt.Sprintf("arn:aws:lambda:%s:%s:function:%s", f.region, f.accountID, spec.Name),
		RoleArn: spec.RoleArn,
	}
	f.functions[spec.Name] = fn
	f.functionSpec[spec.Name] = spec
	return fn, nil
}

func (f *fakeAWSRepository) HasInvokePermission(ctx context.Context, profile, functionName, statementID string) (bool, error) {
	return f.invokePerms[functionName][statementID], nil
}

func (f *fakeAWSRepository) AddInvokePermission(ctx context.Context, profile, functionName, statementID, principal, sourceArn string) error {
	f.mutations++
	if f.invokePerms[functionName] == nil {
		f.invokePerms[functionName] = map[string]bool{}
	}
	f.invokePerms[functionName][statementID] = true
	return nil
}

func (f *fakeAWSRepository) FindLogGroup(ctx context.Context, profile, name string) (*entity.LogGroup, error) {
	return f.logGroups[name], nil
}

func (f *fakeAWSRepository) CreateLogGroup(ctx context.Context, profile, name string) error {
	f.mutations++
	f.logGroups[name] = &entity.LogGroup{
		Name: name,
		Arn:  fmt.Sprintf("arn:aws:logs:%s:%s:log-group:%s:*", f.region, f.accountID, name),
	}
	return nil
}

func (f *fakeAWSRepository) PutLogGroupRetention(ctx context.Context, profile, name string, days int) error {
	f.mutations++
	if g, ok := f.logGroups[name]; ok {
		g.RetentionDays = days
	}
	return nil
}

func (f *fakeAWSRepository) FindSubscriptionFilter(ctx context.Context, profile, logGroupName, filterName string) (*entity.SubscriptionFilter, error) {
	if filter, ok := f.filters[logGroupName+"/"+filterName]; ok {
		return &filter, nil
	}
	return nil, nil
}

func (f *fakeAWSRepository) PutSubscriptionFilter(ctx context.Context, profile string, filter entity.SubscriptionFilter) error {
	f.mutations++
	f.filters[filter.LogGroupName+"/"+filter.Name] = filter
	return nil
}

func (f *fakeAWSRepository) ObjectExists(ctx context.Context, profile, bucket, key string) (bool, error) {
	return f.s3Objects[bucket+"/"+key], nil
}

// fakeConfigRepository devolve sempre a mesma configuração.
type fakeConfigRepository struct {
	cfg *types.Config
}

func (f *fakeConfigRepository) LoadConfigFile(filePath string) (*types.Config, error) {
	return f.cfg, nil
}

// fakeExportRepository captura o último relatório exportado.
type fakeExportRepository struct {
	lastReport *entity.ProvisionReport
}

func (f *fakeExportRepository) ExportToCSV(report *entity.ProvisionReport, filename, outputDir string) (string, error) {
	f.lastReport = report
	return filename + ".csv", nil
}

func (f *fakeExportRepository) ExportToJSON(report *entity.ProvisionReport, filename, outputDir string) (string, error) {
	f.lastReport = report
	return filename + ".json", nil
}

func (f *fakeExportRepository) ExportToPDF(report *entity.ProvisionReport, filename, outputDir string) (string, error) {
	f.lastReport = report
	return filename + ".pdf", nil
}

// fakeConsole descarta toda a saída.
type fakeConsole struct{}

func (fakeConsole) Print(a ...interface{})                   {}
func (fakeConsole) Printf(format string, a ...interface{})   {}
func (fakeConsole) Println(a ...interface{})                 {}
func (fakeConsole) LogInfo(format string, a ...interface{})  {}
func (fakeConsole) LogWarning(f string, a ...interface{})    {}
func (fakeConsole) LogError(format string, a ...interface{}) {}
func (fakeConsole) LogSuccess(f string, a ...interface{})    {}

func (fakeConsole) Status(message string) types.StatusHandle         { return nopHandle{} }
func (fakeConsole) ProgressWithTotal(total int) types.ProgressHandle { return nopHandle{} }
func (fakeConsole) CreateTable() types.TableInterface                { return &nopTable{} }

type nopHandle struct{}

func (nopHandle) Update(message string) {}
func (nopHandle) Increment()            {}
func (nopHandle) Stop()                 {}

type nopTable struct{}

func (*nopTable) AddColumn(name string, options ...interface{}) {}
func (*nopTable) AddRow(cells ...interface{})                   {}
func (*nopTable) Render() string                                { return "" }

// newTestUseCase monta o caso de uso com os fakes e uma configuração sem
// espera de propagação, para os testes não dormirem.
func newTestUseCase(repo *fakeAWSRepository) (*MonitorUseCase, *fakeExportRepository, *types.Config) {
	cfg := types.DefaultConfig()
	cfg.PropagationWait = 0
	cfg.CodeS3Bucket = "deploy-bucket"
	cfg.CodeS3Key = "monitor.zip"
	cfg.Subscribers = []string{"ops@example.com"}

	exportRepo := &fakeExportRepository{}
	uc := NewMonitorUseCase(repo, exportRepo, &fakeConfigRepository{cfg: cfg}, fakeConsole{})
	return uc, exportRepo, cfg
}
