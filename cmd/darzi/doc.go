// Command darzi is the shop's command line.
//
//	darzi migrate                 # create or upgrade the schema
//	darzi seed                    # load the sample shop
//	darzi customer:add --name "Vikram Singh" --phone "+91 98765 43210" --code CS001 --shirt chest=40,waist=34
//	darzi order:create --customer CS001 --item Shirt:2:400 --item Pant:1:400
//	darzi order:transition ORD-129 paid
//	darzi order:list --status pending --search vikram
//	darzi report --type weekly --format excel
//	darzi schedule:run            # daily report at DAILY_REPORT_CRON
//
// Configuration comes from config/app.json and .env; see package config.
// Logs go to stderr so listings on stdout can be piped.
package main
