package config

import (
	"errors"
	"fmt"
	"strconv"

	"pet-gallery/pkg/apperr"
)

func stringParam(p Provider, path, defaultValue string) (string, error) {
	value, err := p.GetParameter(path)
	if errors.Is(err, ErrParameterNotFound) {
		return defaultValue, nil
	}
	if err != nil {
		return "", apperr.Wrap(apperr.Config, "configuration unavailable", err)
	}
	return value, nil
}

func intParam(p Provider, path string, defaultValue int) (int, error) {
	raw, err := stringParam(p, path, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Wrap(apperr.Config, "configuration unavailable",
			fmt.Errorf("parameter %s: %w", path, err))
	}
	return value, nil
}

func int64Param(p Provider, path string, defaultValue int64) (int64, error) {
	raw, err := stringParam(p, path, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.Config, "configuration unavailable",
			fmt.Errorf("parameter %s: %w", path, err))
	}
	return value, nil
}

func boolParam(p Provider, path string, defaultValue bool) (bool, error) {
	raw, err := stringParam(p, path, "")
	if err != nil {
		return false, err
	}
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Wrap(apperr.Config, "configuration unavailable",
			fmt.Errorf("parameter %s: %w", path, err))
	}
	return value, nil
}
