package conf

import "fmt"

// EnvironmentEnum deployment environment, selects the yaml file
type EnvironmentEnum string

const (
	LocalEnvironmentEnum   EnvironmentEnum = "loc"
	ProdEnvironmentEnum    EnvironmentEnum = "prod"
	TestEnvironmentEnum    EnvironmentEnum = "test"
	ExampleEnvironmentEnum EnvironmentEnum = "example"
)

// SystemEnvironmentEnum current environment, set from the -env flag
var SystemEnvironmentEnum = ExampleEnvironmentEnum

// ConfDir directory holding conf_<env>.yaml files
var ConfDir = "./conf"

// GetYaml path of the yaml file for the current environment
func GetYaml() string {
	return fmt.Sprintf("%s/conf_%s.yaml", ConfDir, SystemEnvironmentEnum)
}

// ParseEnvironment map a flag value to an environment, unknown values are rejected
func ParseEnvironment(env string) (EnvironmentEnum, error) {
	switch EnvironmentEnum(env) {
	case LocalEnvironmentEnum, ProdEnvironmentEnum, TestEnvironmentEnum, ExampleEnvironmentEnum:
		return EnvironmentEnum(env), nil
	default:
		return "", fmt.Errorf("unknown environment %q", env)
	}
}
