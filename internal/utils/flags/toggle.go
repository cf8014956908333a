package flags

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTypeNameConstant            = "toggle"
	toggleNoOptionDefaultConstant     = "true"
	toggleParseErrorTemplateConstant  = "invalid toggle value %q (expected true/false, yes/no, on/off, 1/0)"
	choiceUsageTemplateConstant       = "%s (%s; default %s)"
	choiceUsageWithoutDefaultConstant = "%s (%s)"
	choiceSeparatorConstant           = "|"
	longFlagPrefixConstant            = "--"
	flagValueSeparatorConstant        = "="
	argumentTerminatorConstant        = "--"
)

var (
	toggleTruthyValues = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "on": true, "1": true}
	toggleFalsyValues  = map[string]bool{"false": true, "f": true, "no": true, "n": true, "off": true, "0": true}

	registeredToggleNamesMutex sync.RWMutex
	registeredToggleNames = map[string]struct{}{}
)

// separateToggleValues may follow a toggle as their own argument; shorter literals stay positional.
var separateToggleValues = map[string]bool{"true": true, "false": true}

type toggleValue struct {
	target *bool
}

func (value *toggleValue) String() string {
	if value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *toggleValue) Set(rawValue string) error {
	parsedValue, parseError := parseToggleValue(rawValue)
	if parseError != nil {
		return parseError
	}
	*value.target = parsedValue
	return nil
}

func (value *toggleValue) Type() string {
	return toggleTypeNameConstant
}

// AddToggleFlag registers a boolean flag accepting yes/no style values, used bare or as --name=<value>.
// A nil target allocates storage owned by the flag.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 || flagSet.Lookup(name) != nil {
		return
	}
	if target == nil {
		target = new(bool)
	}
	*target = defaultValue

	flag := flagSet.VarPF(&toggleValue{target: target}, name, shorthand, usage)
	flag.NoOptDefVal = toggleNoOptionDefaultConstant

	registeredToggleNamesMutex.Lock()
	registeredToggleNames[name] = struct{}{}
	registeredToggleNamesMutex.Unlock()
}

// NormalizeToggleArguments joins "--toggle true" and "--toggle false" into "--toggle=<value>", so the
// value is not mistaken for a positional argument. Other literals such as "n" or "1" are only
// accepted in the "--toggle=<value>" form because they are plausible remote names.
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalizedArguments := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		currentArgument := arguments[index]
		if currentArgument == argumentTerminatorConstant {
			normalizedArguments = append(normalizedArguments, arguments[index:]...)
			break
		}

		if isRegisteredToggle(currentArgument) && index+1 < len(arguments) {
			if separateToggleValues[strings.ToLower(strings.TrimSpace(arguments[index+1]))] {
				normalizedArguments = append(normalizedArguments, currentArgument+flagValueSeparatorConstant+arguments[index+1])
				index++
				continue
			}
		}
		normalizedArguments = append(normalizedArguments, currentArgument)
	}
	return normalizedArguments
}

// FormatChoiceUsage renders usage text listing the accepted values of a flag.
func FormatChoiceUsage(defaultValue string, choices []string, usage string) string {
	joinedChoices := strings.Join(choices, choiceSeparatorConstant)
	if len(defaultValue) == 0 {
		return fmt.Sprintf(choiceUsageWithoutDefaultConstant, usage, joinedChoices)
	}
	return fmt.Sprintf(choiceUsageTemplateConstant, usage, joinedChoices, defaultValue)
}

func isRegisteredToggle(argument string) bool {
	if !strings.HasPrefix(argument, longFlagPrefixConstant) || strings.Contains(argument, flagValueSeparatorConstant) {
		return false
	}
	registeredToggleNamesMutex.RLock()
	defer registeredToggleNamesMutex.RUnlock()
	_, registered := registeredToggleNames[strings.TrimPrefix(argument, longFlagPrefixConstant)]
	return registered
}

func parseToggleValue(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if toggleTruthyValues[normalizedValue] {
		return true, nil
	}
	if toggleFalsyValues[normalizedValue] {
		return false, nil
	}
	return false, fmt.Errorf(toggleParseErrorTemplateConstant, rawValue)
}
