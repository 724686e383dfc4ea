package service

import "errors"

// ErrDuplicateRedemption is returned by RedemptionRepository.Create when the user
// already holds a claim on the code
var ErrDuplicateRedemption = errors.New("redemption already recorded")
