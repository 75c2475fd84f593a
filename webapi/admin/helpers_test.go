package admin_test

import "github.com/amirasaad/charity/pkg/service/records"

func recordsApplication(name, email string) records.Application {
	return records.Application{Name: name, Email: email, Skills: []string{"football"}}
}
