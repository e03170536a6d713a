package roles

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const maxRolesEnvVar string = "MIRA_MAX_ROLES_PER_GROUP"
const defaultGroupEnvVar string = "MIRA_DEFAULT_GROUP"
const reconcileIntervalEnvVar string = "MIRA_RECONCILE_INTERVAL_SECS"

//Discord refuses select menus with more than 25 options.
const selectOptionCeiling int = 25

const defaultGroupName string = "Other roles"
const defaultGroupDescription string = "Roles tracked without an explicit group"
const defaultFuzzyCutoff int = 40
const defaultCacheTTL = 30 * time.Second
const defaultCacheGuilds int = 512
const defaultReconcileInterval = 15 * time.Minute

//Config carries the tunables shared by the registry, engine, reconciler and
//projector.
type Config struct {
	//Display name of the group used when a role is tracked without one. The
	//default group is exempt from the MaxRolesPerGroup ceiling.
	DefaultGroupName        string
	DefaultGroupDescription string
	//Ceiling on roles per non-default group.
	MaxRolesPerGroup int
	//Ceiling on options in a rendered selector.
	MaxSelectOptions int
	//Minimum fuzzy-match score for group name resolution.
	FuzzyCutoff int
	//Group cache expiry and guild capacity.
	CacheTTL    time.Duration
	CacheGuilds int
	//Per-guild drift reconciliation period.
	ReconcileInterval time.Duration
}

//ConfigFromEnv builds a Config from environment variables, falling back to
//defaults for anything unset.
func ConfigFromEnv() Config {
	cfg := Config{
		DefaultGroupName:        defaultGroupName,
		DefaultGroupDescription: defaultGroupDescription,
		MaxRolesPerGroup:        selectOptionCeiling,
		MaxSelectOptions:        selectOptionCeiling,
		FuzzyCutoff:             defaultFuzzyCutoff,
		CacheTTL:                defaultCacheTTL,
		CacheGuilds:             defaultCacheGuilds,
		ReconcileInterval:       defaultReconcileInterval,
	}
	if name, exists := os.LookupEnv(defaultGroupEnvVar); exists {
		cfg.DefaultGroupName = name
	}
	if raw, exists := os.LookupEnv(maxRolesEnvVar); exists {
		max, err := strconv.Atoi(raw)
		if err != nil || max < 1 {
			logrus.Warnf("Ignoring invalid `%v` value %v", maxRolesEnvVar, raw)
		} else {
			cfg.MaxRolesPerGroup = max
		}
	}
	if raw, exists := os.LookupEnv(reconcileIntervalEnvVar); exists {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 1 {
			logrus.Warnf("Ignoring invalid `%v` value %v", reconcileIntervalEnvVar, raw)
		} else {
			cfg.ReconcileInterval = time.Duration(secs) * time.Second
		}
	}
	return cfg
}
