// Package errors provides structured, actionable errors for configuration
// and command line failures.
//
// Each error has a unique code (e.g., "E121") that maps to a short message,
// a detailed explanation and a fix hint. Errors may carry a file location,
// in which case the surrounding lines are shown.
//
// # Usage
//
//	err := errors.New(errors.CodeInvalidEnv).
//	    WithLocation("stcms.yaml", 3, 10).
//	    WithDetail(`app_env is "staging"`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E121: Invalid app_env
//	//
//	//   stcms.yaml:3:10
//	//
//	//       2 │ api_base_url: http://localhost:80
//	//   →   3 │ app_env: staging
//	//         │          ^
//	//       4 │ default_language: en
//	//
//	//   app_env is "staging"
//	//
//	//   Hint: Set APP_ENV=development or APP_ENV=production.
package errors
