// Package validate checks client and profile form input before it reaches the store.
//
// Every field is checked on its own, so a form with several bad fields reports
// all of them at once:
//
//	res := validate.ValidateClient("Al", "al@", "12ab")
//	for _, v := range res.Violations() {
//		fmt.Println(v.Field, v.Kind, v.Message())
//	}
//
// Result.Err converts a failing result into a *ValidationError that callers can
// match with errors.As.
package validate
