package strategies

import (
	"encoding/json"
	"fmt"

	"github.com/ZephyrianDawnstrider/hrms/pkg/healthcheck"
	"github.com/ZephyrianDawnstrider/hrms/pkg/strategies/mockhc"
	"github.com/ZephyrianDawnstrider/hrms/pkg/strategies/pgprobe"
	"github.com/ZephyrianDawnstrider/hrms/pkg/strategies/sqlprobe"
	"github.com/ZephyrianDawnstrider/hrms/pkg/strategies/tcpconnhc"
)

func NewStrategy(name healthcheck.StrategyName, target healthcheck.Target, checkCfg []byte) (healthcheck.Strategy, error) {
	var (
		settingsVar any
		createFunc  func(any) (healthcheck.Strategy, error)
	)
	switch name {
	case healthcheck.PostgresStrategy:
		settingsVar = &pgprobe.PostgresSettings{}
		createFunc = func(settings any) (healthcheck.Strategy, error) {
			return pgprobe.NewPostgresStrategy(settings.(*pgprobe.PostgresSettings), target)
		}
	case healthcheck.SQLStrategy:
		settingsVar = &sqlprobe.SQLSettings{}
		createFunc = func(settings any) (healthcheck.Strategy, error) {
			return sqlprobe.NewSQLStrategy(settings.(*sqlprobe.SQLSettings), target)
		}
	case healthcheck.TCPStrategy:
		settingsVar = &tcpconnhc.TcpHealthCheckSettings{}
		createFunc = func(settings any) (healthcheck.Strategy, error) {
			return tcpconnhc.NewTcpConnStrategy(settings.(*tcpconnhc.TcpHealthCheckSettings), target.Addr)
		}
	case healthcheck.MockStrategy:
		settingsVar = &mockhc.MockHCSettings{}
		createFunc = func(settings any) (healthcheck.Strategy, error) {
			return mockhc.NewMockHC(settings.(*mockhc.MockHCSettings)), nil
		}
	default:
		return nil, fmt.Errorf("unknown health check strategy %q", name)
	}

	if len(checkCfg) == 0 {
		checkCfg = []byte("{}")
	}
	err := json.Unmarshal(checkCfg, settingsVar)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal cfg for strategy: %s: %w", name, err)
	}
	return createFunc(settingsVar)
}
