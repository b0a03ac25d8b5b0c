// Package authz decides how many independent staff approvals a batch needs
// and checks the attached credentials against that requirement.
//
// Decide is a total function: it never fails, it only raises flags. Check
// reports every unmet condition at once as an AuthorizationDenied error.
package authz
